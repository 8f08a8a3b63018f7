package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileStore reads a credential from a JSON object document on disk, e.g.
//
//	{"token": "eyJhbGciOi..."}
//
// The document is re-read on every call so a token written by the login
// flow is picked up without a restart.
type FileStore struct {
	path string
	key  string
}

// NewFileStore returns a store reading key from the document at path.
// An empty key falls back to DefaultKey.
func NewFileStore(path, key string) *FileStore {
	if key == "" {
		key = DefaultKey
	}
	return &FileStore{path: path, key: key}
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Read(_ context.Context) (string, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read credential file: %w", err)
	}

	if len(data) == 0 {
		return "", false, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", false, fmt.Errorf("failed to parse credential file %s: %w", s.path, err)
	}

	// Non-string values are not credentials; treat them like a missing key.
	token, _ := doc[s.key].(string)
	return token, token != "", nil
}
