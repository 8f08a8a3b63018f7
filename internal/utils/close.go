package utils

import (
	"context"
	"io"
)

// CancelOnClose releases a request context once the response body is closed.
type CancelOnClose struct {
	io.ReadCloser
	Cancel context.CancelFunc
}

func (c *CancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	if c.Cancel != nil {
		c.Cancel()
	}
	return err
}

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical.
func Close(c io.Closer) {
	_ = c.Close()
}
