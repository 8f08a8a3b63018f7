// Package inventory is the typed client for the inventory backend. It only
// builds requests and decodes responses; authentication is added by the
// httpclient pipeline underneath.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrSnakeDoc/stockfront/internal/httpclient"
	"github.com/MrSnakeDoc/stockfront/internal/utils"
)

const (
	pathRegister   = "/api/register"
	pathProducts   = "/api/products"
	pathStock      = "/api/stock"
	pathStockLogs  = "/api/stock_logs"
	pathTotalStock = "/api/total_stock"
)

var ErrInvalidStockChange = errors.New("invalid stock change")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("inventory api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("inventory api: %d: %s", e.StatusCode, e.Detail)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client calls the inventory backend through an authenticated httpclient.
type Client struct {
	api *httpclient.Client
}

func New(api *httpclient.Client) *Client {
	return &Client{api: api}
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var out message
	if err := c.call(ctx, http.MethodPost, pathRegister, registration{Username: username, Password: password}, &out); err != nil {
		return "", err
	}
	return out.Msg, nil
}

// ListProducts lists the caller's products, optionally filtered by a name
// substring.
func (c *Client) ListProducts(ctx context.Context, name string) ([]Product, error) {
	path := pathProducts
	if name != "" {
		path += "?" + url.Values{"name": {name}}.Encode()
	}

	products := []Product{}
	if err := c.call(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) AddProduct(ctx context.Context, in ProductInput) (*Product, error) {
	var p Product
	if err := c.call(ctx, http.MethodPost, pathProducts, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*Product, error) {
	var p Product
	if err := c.call(ctx, http.MethodPut, productPath(id), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, productPath(id), nil, nil)
}

// ChangeStock records an inbound or outbound movement. Quantity is always
// positive; the direction decides the sign the backend applies.
func (c *Client) ChangeStock(ctx context.Context, change StockChange) (string, error) {
	if change.Quantity <= 0 {
		return "", fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidStockChange, change.Quantity)
	}
	if change.Direction != StockIn && change.Direction != StockOut {
		return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidStockChange, change.Direction)
	}

	var out message
	if err := c.call(ctx, http.MethodPost, pathStock, change, &out); err != nil {
		return "", err
	}
	return out.Msg, nil
}

// StockLogs returns the ledger newest first. productID 0 means all products.
func (c *Client) StockLogs(ctx context.Context, productID int64) ([]StockLog, error) {
	path := pathStockLogs
	if productID != 0 {
		path += "?" + url.Values{"product_id": {strconv.FormatInt(productID, 10)}}.Encode()
	}

	logs := []StockLog{}
	if err := c.call(ctx, http.MethodGet, path, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// TotalStock sums stock over all of the caller's products.
func (c *Client) TotalStock(ctx context.Context) (int, error) {
	var out totalStock
	if err := c.call(ctx, http.MethodGet, pathTotalStock, nil, &out); err != nil {
		return 0, err
	}
	return out.Total, nil
}

func productPath(id int64) string {
	return pathProducts + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	req, err := c.api.NewJSONRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	resp, err := c.api.Do(req)
	if err != nil {
		return err
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &payload) != nil || len(payload.Detail) == 0 {
		apiErr.Detail = string(body)
		return apiErr
	}

	// Validation failures carry a list of objects rather than a string.
	var detail string
	if json.Unmarshal(payload.Detail, &detail) == nil {
		apiErr.Detail = detail
	} else {
		apiErr.Detail = string(payload.Detail)
	}
	return apiErr
}
