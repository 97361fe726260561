package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tillworks/till/internal/cart"
	"github.com/tillworks/till/internal/pricing"
	"github.com/tillworks/till/internal/salesapi"
)

// ErrEmptyCart rejects a checkout with nothing in the cart. Validation
// failures like this never reach the network.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// ConnectivityOracle reports whether the client believes it is online.
// A submission failure is classified transient only when the oracle says
// offline at failure time; everything else is permanent.
type ConnectivityOracle interface {
	IsOnline() bool
}

// SalesSubmitter is the slice of the sales API the submitter needs.
// Implemented by salesapi.Client.
type SalesSubmitter interface {
	SubmitSale(ctx context.Context, payload []byte) (*salesapi.Sale, error)
}

// Outcome is the terminal state of a checkout attempt that did not fail
// permanently.
type Outcome int

const (
	// OutcomeSucceeded means the backend committed the sale.
	OutcomeSucceeded Outcome = iota
	// OutcomeQueued means connectivity was down, the payload was durably
	// queued, and the sale is locally committed pending reconciliation.
	OutcomeQueued
)

// CheckoutOptions carries the per-checkout inputs that are not part of the
// cart itself.
type CheckoutOptions struct {
	PaymentMethod  string
	CustomerID     *int64
	PointsToRedeem int
}

// Result is a non-permanent checkout outcome. Sale is nil when queued.
type Result struct {
	Outcome Outcome
	Sale    *salesapi.Sale
	Pricing pricing.Result
	Queued  *QueuedSale
}

// Submitter runs checkout attempts through the state machine
// Submitting -> Succeeded | FailedTransient -> Queued | FailedPermanent.
//
// On success or queueing the active cart is cleared: from the cashier's
// side the transaction is done either way. On a permanent failure the cart
// is preserved unchanged so the cashier can adjust and retry. Nothing here
// retries automatically - an ambiguous retry risks a double charge, and
// replaying queued sales belongs to the external reconciliation process.
type Submitter struct {
	api     SalesSubmitter
	oracle  ConnectivityOracle
	queue   *Queue
	tax     pricing.TaxConfig
	loyalty pricing.LoyaltyConfig
	log     *slog.Logger
}

// NewSubmitter constructs a checkout submitter.
func NewSubmitter(api SalesSubmitter, oracle ConnectivityOracle, queue *Queue, tax pricing.TaxConfig, loyalty pricing.LoyaltyConfig, log *slog.Logger) *Submitter {
	if log == nil {
		log = slog.Default()
	}
	return &Submitter{api: api, oracle: oracle, queue: queue, tax: tax, loyalty: loyalty, log: log}
}

// BuildSaleRequest assembles the wire payload for the engine's current cart.
// Exposed so tests and the reconciliation contract share one encoder.
func BuildSaleRequest(c cart.Cart, opts CheckoutOptions) salesapi.SaleRequest {
	items := make([]salesapi.SaleItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, salesapi.SaleItem{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return salesapi.SaleRequest{
		Items:          items,
		Discount:       c.DiscountValue,
		DiscountType:   string(c.DiscountKind),
		PaymentMethod:  opts.PaymentMethod,
		CustomerID:     opts.CustomerID,
		PointsRedeemed: opts.PointsToRedeem,
	}
}

// Checkout submits the engine's active cart.
//
// There is no cancellation or timeout-driven abort once the request is in
// flight; callers disable repeat submission while this blocks. The engine
// does not deduplicate concurrent submissions of the same cart.
func (s *Submitter) Checkout(ctx context.Context, eng *cart.Engine, opts CheckoutOptions) (Result, error) {
	if eng.Empty() {
		return Result{}, ErrEmptyCart
	}

	c := eng.Cart()
	pr := pricing.Compute(c, s.tax, s.loyalty, opts.PointsToRedeem)

	payload, err := json.Marshal(BuildSaleRequest(c, opts))
	if err != nil {
		return Result{}, fmt.Errorf("encode sale: %w", err)
	}

	sale, err := s.api.SubmitSale(ctx, payload)
	if err == nil {
		eng.Clear()
		s.log.Info("sale committed", "sale_id", sale.ID, "total", pr.Total)
		return Result{Outcome: OutcomeSucceeded, Sale: sale, Pricing: pr}, nil
	}

	// A backend rejection proves the request arrived: always permanent,
	// whatever the oracle currently thinks.
	if !salesapi.IsAPIError(err) && !s.oracle.IsOnline() {
		q, qerr := s.queue.Enqueue(payload)
		if qerr != nil {
			// Could not even queue: surface the original failure, keep the cart.
			return Result{}, fmt.Errorf("offline queueing failed: %w", errors.Join(qerr, err))
		}
		eng.Clear()
		s.log.Info("sale queued offline", "queued_id", q.ID, "total", pr.Total)
		return Result{Outcome: OutcomeQueued, Pricing: pr, Queued: &q}, nil
	}

	return Result{}, err
}
