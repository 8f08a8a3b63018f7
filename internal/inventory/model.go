package inventory

import (
	"fmt"
	"strings"
	"time"
)

// StockDirection is the wire value the backend expects in StockChange.Type.
type StockDirection string

const (
	StockIn  StockDirection = "入库"
	StockOut StockDirection = "出库"
)

// Product is a product owned by the authenticated user.
type Product struct {
	ID          int64   `json:"id" yaml:"id"`
	UserID      int64   `json:"user_id" yaml:"user_id"`
	Name        string  `json:"name" yaml:"name"`
	Description *string `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	Stock       int     `json:"stock" yaml:"stock"`
}

// ProductInput is the body of create and update calls.
type ProductInput struct {
	Name        string  `json:"name" yaml:"name"`
	Description *string `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	Stock       int     `json:"stock" yaml:"stock"`
}

// StockChange moves Quantity units of a product in or out.
type StockChange struct {
	ProductID int64          `json:"product_id" yaml:"product_id"`
	Quantity  int            `json:"change" yaml:"change"`
	Direction StockDirection `json:"type" yaml:"type"`
}

// StockLog is one entry of the stock ledger. Change is signed: negative for
// outbound movements.
type StockLog struct {
	ID        int64          `json:"id" yaml:"id"`
	ProductID int64          `json:"product_id" yaml:"product_id"`
	UserID    int64          `json:"user_id" yaml:"user_id"`
	Change    int            `json:"change" yaml:"change"`
	Direction StockDirection `json:"type" yaml:"type"`
	Timestamp Timestamp      `json:"timestamp" yaml:"timestamp"`
}

type message struct {
	Msg string `json:"msg"`
}

type totalStock struct {
	Total int `json:"total"`
}

type registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// naiveLayout is how the backend serialises its UTC timestamps: ISO 8601
// without a zone designator.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// Timestamp accepts both RFC 3339 and zone-less timestamps. Zone-less values
// are UTC.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalYAML() (any, error) { return t.Time, nil }

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}
