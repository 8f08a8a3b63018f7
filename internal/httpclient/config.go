package httpclient

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultTimeout is the Config.Timeout stockctl uses when --timeout is not
// given. New does not substitute it: a zero Config.Timeout is rejected.
const DefaultTimeout = 10 * time.Second

// Config holds the defaults every request issued by a Client inherits.
// It is built once at startup and handed to New; there is no shared default
// client to mutate.
type Config struct {
	// BaseURL is prepended to relative request paths.
	BaseURL string `validate:"required,url"`
	// Timeout bounds any request whose context carries no deadline.
	Timeout time.Duration `validate:"gt=0"`
}

var validate = validator.New()

// Validate checks the config before a client is built from it.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}
	return nil
}
