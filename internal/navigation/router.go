package navigation

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
)

// ViewFactory builds the handler for a view. It is called at most once, on
// the first navigation to a path mapped to the view.
type ViewFactory func() http.Handler

// Resolver looks up views by name.
type Resolver interface {
	Resolve(name string) (ViewFactory, bool)
}

// lazyView defers building a view until it is first navigated to.
type lazyView struct {
	once    sync.Once
	factory ViewFactory
	handler http.Handler
}

func (v *lazyView) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v.once.Do(func() { v.handler = v.factory() })
	v.handler.ServeHTTP(w, r)
}

// NewRouter builds the navigation router over t. Every entry is served on
// GET and HEAD; anything that matches no entry goes to fallback. An empty
// table is valid and yields a router where every navigation falls through.
func NewRouter(t Table, views Resolver, fallback http.Handler) (chi.Router, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if fallback == nil {
		fallback = http.NotFoundHandler()
	}

	r := chi.NewRouter()
	r.NotFound(fallback.ServeHTTP)
	r.MethodNotAllowed(fallback.ServeHTTP)

	for _, e := range t {
		factory, ok := views.Resolve(e.View)
		if !ok {
			return nil, fmt.Errorf("%w: %q for path %s", ErrUnknownView, e.View, e.Path)
		}
		v := &lazyView{factory: factory}
		r.Get(e.Path, v.ServeHTTP)
		r.Head(e.Path, v.ServeHTTP)
	}

	return r, nil
}
