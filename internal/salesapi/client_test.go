package salesapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SubmitSaleSuccess(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/sales", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":             7,
			"invoice_number": "INV-0007",
			"total":          "8.00",
			"created_at":     "2026-03-01T14:00:00Z",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api", nil)
	payload := []byte(`{"items":[],"discount":"0","discount_type":"fixed","payment_method":"cash"}`)

	sale, err := c.SubmitSale(context.Background(), payload)

	require.NoError(t, err)
	assert.Equal(t, payload, gotBody, "payload is forwarded byte-for-byte")
	assert.Equal(t, int64(7), sale.ID)
	assert.Equal(t, "INV-0007", sale.InvoiceNumber)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("8")))
}

func TestClient_SubmitSaleBusinessRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "insufficient stock"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.SubmitSale(context.Background(), []byte(`{}`))

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "insufficient stock", apiErr.Message)
	assert.True(t, IsAPIError(err))
}

func TestClient_SubmitSaleRejectionFallsBackToRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, "plain failure text")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.SubmitSale(context.Background(), []byte(`{}`))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "plain failure text", apiErr.Message)
}

func TestClient_SubmitSaleTransportFailureIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Nothing listening anymore.

	c := NewClient(srv.URL, nil)
	_, err := c.SubmitSale(context.Background(), []byte(`{}`))

	require.Error(t, err)
	assert.False(t, IsAPIError(err), "a request that never arrived is not a rejection")
}

func TestClient_SubmitSaleHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.SubmitSale(ctx, []byte(`{}`))

	assert.True(t, errors.Is(err, context.Canceled))
}
