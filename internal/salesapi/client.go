// Package salesapi is the HTTP client for the external sales backend.
// The backend owns transaction processing; this client only submits
// checkout requests and reports the outcome.
package salesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// SaleItem is one line of a checkout submission.
type SaleItem struct {
	ProductID int64           `json:"product_id"`
	VariantID *int64          `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SaleRequest is the checkout wire payload. Queued offline sales replay
// these exact bytes, so field names and shapes here are the reconciliation
// contract as well as the online one.
type SaleRequest struct {
	Items          []SaleItem      `json:"items"`
	Discount       decimal.Decimal `json:"discount"`
	DiscountType   string          `json:"discount_type"`
	PaymentMethod  string          `json:"payment_method"`
	CustomerID     *int64          `json:"customer_id,omitempty"`
	PointsRedeemed int             `json:"points_redeemed,omitempty"`
}

// Sale is the backend's record of a committed sale, used to render a receipt.
type Sale struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
}

// APIError is a non-2xx response from the backend: the request reached the
// server and the server refused it (insufficient stock at commit time,
// validation failure). These are business-rule rejections, never retried
// and never queued - the message is shown to the cashier verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sales api: %s (status %d)", e.Message, e.StatusCode)
}

// IsAPIError reports whether err is a backend rejection, unwrapping as needed.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// Client submits sales to the backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL. The default client
// carries no timeout: once a sale is in flight the engine waits for
// success, rejection, or the offline classification. A timeout-driven
// abort would be ambiguous about whether the server committed, and an
// ambiguous abort risks a double charge.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// SubmitSale POSTs a checkout. Transport-level failures come back as plain
// errors; server rejections come back as *APIError. The caller classifies
// transport failures against its connectivity oracle.
func (c *Client) SubmitSale(ctx context.Context, payload []byte) (*Sale, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sales", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build sale request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit sale: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read sale response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: rejectionMessage(body)}
	}

	var sale Sale
	if err := json.Unmarshal(body, &sale); err != nil {
		return nil, fmt.Errorf("decode sale response: %w", err)
	}
	return &sale, nil
}

// rejectionMessage extracts a human-readable message from an error body,
// falling back to the raw body.
func rejectionMessage(body []byte) string {
	var wire struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &wire); err == nil {
		if wire.Message != "" {
			return wire.Message
		}
		if wire.Error != "" {
			return wire.Error
		}
	}
	return string(body)
}
