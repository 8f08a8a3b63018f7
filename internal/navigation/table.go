// Package navigation holds the client-side route table and the router that
// is built over it once at startup.
package navigation

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrDuplicatePath = errors.New("duplicate route path")
	ErrInvalidEntry  = errors.New("invalid route entry")
	ErrUnknownView   = errors.New("unknown view")
)

// Entry maps a path pattern (chi syntax, e.g. "/products/{id}") to a view
// name from the view catalog.
type Entry struct {
	Path string `yaml:"path" json:"path"`
	View string `yaml:"view" json:"view"`
}

// Table is the ordered route table.
type Table []Entry

// Default is the table the console ships with. It is intentionally empty:
// no client-side paths are registered, and every navigation falls through
// to the fallback handler.
var Default = Table{}

type tableFile struct {
	Routes Table `yaml:"routes"`
}

// LoadFile reads a route table from YAML:
//
//	routes:
//	  - path: /
//	    view: dashboard
//
// An empty path returns Default.
func LoadFile(path string) (Table, error) {
	if path == "" {
		return Default, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes file: %w", err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse routes yaml: %w", err)
	}
	if f.Routes == nil {
		return Table{}, nil
	}
	return f.Routes, nil
}

// paramName matches a chi URL parameter, capturing its optional regexp.
var paramName = regexp.MustCompile(`\{[^}:]*(:[^}]*)?\}`)

// routeKey reduces a pattern to the shape chi matches on: parameter names are
// dropped, so "/products/{id}" and "/products/{pid}" share a key.
func routeKey(path string) string {
	return paramName.ReplaceAllString(path, "{$1}")
}

// Validate checks that every entry is well formed and that no two paths
// match the same requests.
func (t Table) Validate() error {
	seen := make(map[string]int, len(t))
	for i, e := range t {
		if e.Path == "" || !strings.HasPrefix(e.Path, "/") {
			return fmt.Errorf("%w: entry %d path %q must start with /", ErrInvalidEntry, i, e.Path)
		}
		if strings.TrimSpace(e.View) == "" {
			return fmt.Errorf("%w: entry %d (%s) has no view", ErrInvalidEntry, i, e.Path)
		}
		key := routeKey(e.Path)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s and %s (entries %d and %d)", ErrDuplicatePath, t[prev].Path, e.Path, prev, i)
		}
		seen[key] = i
	}
	return nil
}
