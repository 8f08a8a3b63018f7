// Package credential reads the bearer credential that an external login flow
// leaves in persistent storage. Nothing in this package issues or refreshes
// tokens.
package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultKey is the storage key the login flow writes the token under.
const DefaultKey = "token"

// ErrUnknownBackend is returned by ParseBackend for an unsupported name.
var ErrUnknownBackend = errors.New("unknown credential backend")

// Reader is the read capability the request pipeline depends on.
//
// Read returns ("", false, nil) when no credential is stored. Absence is a
// normal outcome and never an error; err is reserved for a storage backend
// that could not be read at all.
type Reader interface {
	Read(ctx context.Context) (string, bool, error)
}

// Memory holds a credential in process. It is the store used by tests and
// by embedders that manage the token themselves.
type Memory struct {
	mu    sync.RWMutex
	value string
}

// NewMemory returns a store holding token. An empty token means absent.
func NewMemory(token string) *Memory {
	return &Memory{value: token}
}

func (m *Memory) Read(_ context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value, m.value != "", nil
}

// Set replaces the stored credential.
func (m *Memory) Set(token string) {
	m.mu.Lock()
	m.value = token
	m.mu.Unlock()
}

// Clear removes the stored credential.
func (m *Memory) Clear() { m.Set("") }

// Backend names a credential storage implementation.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
)

// ParseBackend validates a backend name from configuration.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case BackendFile, BackendRedis:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}
