// Package views is the static catalog of pages the navigation router can map
// paths to. Each view is built on first use and renders server-side HTML from
// the inventory API.
package views

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/stockfront/internal/inventory"
	"github.com/MrSnakeDoc/stockfront/internal/logger"
	"github.com/MrSnakeDoc/stockfront/internal/navigation"
)

//go:embed templates/*.html
var templateFS embed.FS

// Inventory is the part of the inventory client the views read from.
type Inventory interface {
	ListProducts(ctx context.Context, name string) ([]inventory.Product, error)
	StockLogs(ctx context.Context, productID int64) ([]inventory.StockLog, error)
	TotalStock(ctx context.Context) (int, error)
}

// Catalog resolves view names for the navigation router.
type Catalog struct {
	inv     Inventory
	log     logger.Logger
	errPage *template.Template
}

var _ navigation.Resolver = (*Catalog)(nil)

// builders is the fixed set of views. Adding a view means adding a line here
// and a template; nothing is discovered at runtime.
var builders = map[string]func(*Catalog) http.Handler{
	"dashboard":  (*Catalog).dashboard,
	"products":   (*Catalog).products,
	"stock-logs": (*Catalog).stockLogs,
}

func NewCatalog(inv Inventory, log logger.Logger) *Catalog {
	return &Catalog{inv: inv, log: log, errPage: mustPage("error.html")}
}

// Names lists the registered view names, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is a registered view.
func Has(name string) bool {
	_, ok := builders[name]
	return ok
}

func (c *Catalog) Resolve(name string) (navigation.ViewFactory, bool) {
	build, ok := builders[name]
	if !ok {
		return nil, false
	}
	return func() http.Handler {
		c.log.Debug("building view", logger.String("view", name))
		return build(c)
	}, true
}

// NotFound is the navigation fallback for paths no route maps.
func (c *Catalog) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.render(w, c.errPage, http.StatusNotFound, "Not found", "Nothing is registered at "+r.URL.Path+".")
	})
}

type pageData struct {
	Title string
	Data  any
}

func mustPage(name string) *template.Template {
	return template.Must(template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

func (c *Catalog) render(w http.ResponseWriter, page *template.Template, status int, title string, data any) {
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", pageData{Title: title, Data: data}); err != nil {
		c.log.Error("failed to render view", logger.String("title", title), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderAPIError maps a failed backend call to a page. Authentication
// failures keep their status so the browser sees the same 401 the API gave.
func (c *Catalog) renderAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *inventory.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
		c.render(w, c.errPage, http.StatusUnauthorized, "Sign in required", "The stored credential was rejected or is missing.")
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		c.render(w, c.errPage, http.StatusNotFound, "Not found", apiErr.Detail)
	case errors.Is(err, context.DeadlineExceeded):
		c.log.Warn("inventory api timed out", logger.String("path", r.URL.Path), logger.Error(err))
		c.render(w, c.errPage, http.StatusGatewayTimeout, "Inventory unavailable", "The inventory service did not answer in time.")
	default:
		c.log.Warn("inventory api call failed", logger.String("path", r.URL.Path), logger.Error(err))
		c.render(w, c.errPage, http.StatusBadGateway, "Inventory unavailable", "The inventory service could not be reached.")
	}
}

func (c *Catalog) dashboard() http.Handler {
	page := mustPage("dashboard.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		products, err := c.inv.ListProducts(r.Context(), "")
		if err != nil {
			c.renderAPIError(w, r, err)
			return
		}
		total, err := c.inv.TotalStock(r.Context())
		if err != nil {
			c.renderAPIError(w, r, err)
			return
		}
		c.render(w, page, http.StatusOK, "Dashboard", struct {
			Products int
			Total    int
		}{len(products), total})
	})
}

func (c *Catalog) products() http.Handler {
	page := mustPage("products.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filter := r.URL.Query().Get("name")
		products, err := c.inv.ListProducts(r.Context(), filter)
		if err != nil {
			c.renderAPIError(w, r, err)
			return
		}
		c.render(w, page, http.StatusOK, "Products", struct {
			Filter   string
			Products []inventory.Product
		}{filter, products})
	})
}

// stockLogs filters by the {id} route parameter when the path pattern has
// one, else by ?product_id=.
func (c *Catalog) stockLogs() http.Handler {
	page := mustPage("stock_logs.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		if raw == "" {
			raw = r.URL.Query().Get("product_id")
		}

		var productID int64
		if raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				c.render(w, c.errPage, http.StatusBadRequest, "Bad request", "Invalid product id "+strconv.Quote(raw)+".")
				return
			}
			productID = id
		}

		logs, err := c.inv.StockLogs(r.Context(), productID)
		if err != nil {
			c.renderAPIError(w, r, err)
			return
		}

		rows := make([]stockRow, 0, len(logs))
		for _, l := range logs {
			rows = append(rows, stockRow{Timestamp: l.Timestamp.Time, ProductID: l.ProductID, Direction: string(l.Direction), Change: l.Change})
		}
		c.render(w, page, http.StatusOK, "Stock movements", struct{ Logs []stockRow }{rows})
	})
}

type stockRow struct {
	Timestamp time.Time
	ProductID int64
	Direction string
	Change    int
}
