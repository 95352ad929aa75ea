// Package playbilling provides implementations of the billing channel
// contract. SandboxChannel is the in-process deterministic implementation
// used by local mode and tests; a real deployment binds the same contract
// to the platform billing SDK.
package playbilling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
	"github.com/minilingo/minilingo/internal/checkout/domain"
)

// SandboxChannel simulates the platform billing store. RequestPurchase
// resolves asynchronously on the Updates stream (approved by default) or
// the Errors stream when a decider is installed. FinishTransaction is
// idempotent, mirroring the platform acknowledge semantics.
type SandboxChannel struct {
	logger *slog.Logger

	mu       sync.Mutex
	ready    bool
	ended    bool
	products map[string]domain.Product
	finished map[string]int
	decider  func(productID string) *domain.ChannelError

	updates chan domain.Purchase
	errs    chan domain.ChannelError
}

// NewSandboxChannel creates a disconnected sandbox stocked with the full
// catalog at the given localized price.
func NewSandboxChannel(localizedPrice string, logger *slog.Logger) *SandboxChannel {
	if logger == nil {
		logger = slog.Default()
	}
	products := make(map[string]domain.Product)
	for _, o := range catalog.Offerings() {
		products[o.ProductID] = domain.Product{
			ProductID:      o.ProductID,
			Title:          fmt.Sprintf("%s %s course", o.Language, o.Level.DisplayLabel()),
			LocalizedPrice: localizedPrice,
		}
	}
	return &SandboxChannel{
		logger:   logger,
		products: products,
		finished: make(map[string]int),
		updates:  make(chan domain.Purchase, 8),
		errs:     make(chan domain.ChannelError, 8),
	}
}

// SetDecider installs a hook deciding the outcome of the next purchase
// requests. Returning nil approves; returning a ChannelError delivers it
// on the Errors stream. Used by tests and failure drills.
func (c *SandboxChannel) SetDecider(decider func(productID string) *domain.ChannelError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decider = decider
}

// InitConnection marks the channel ready. The product catalog is static,
// so readiness is immediate.
func (c *SandboxChannel) InitConnection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return errors.New("sandbox channel connection already ended")
	}
	c.ready = true
	c.logger.Debug("sandbox billing connection established", "products", len(c.products))
	return nil
}

// Ready reports whether InitConnection succeeded and the channel is open.
func (c *SandboxChannel) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready && !c.ended
}

// GetProducts returns metadata for the requested product IDs. Unknown IDs
// are skipped, matching platform store behavior.
func (c *SandboxChannel) GetProducts(ctx context.Context, productIDs []string) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready || c.ended {
		return nil, domain.ErrNotReady
	}
	out := make([]domain.Product, 0, len(productIDs))
	for _, id := range productIDs {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// RequestPurchase starts a simulated purchase. The outcome is queued on
// the Updates or Errors stream before the call returns.
func (c *SandboxChannel) RequestPurchase(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready || c.ended {
		return domain.ErrNotReady
	}
	if _, ok := c.products[productID]; !ok {
		c.errs <- domain.ChannelError{
			Code:      domain.ChannelErrItemUnavailable,
			ProductID: productID,
			Message:   "product not in sandbox catalog",
		}
		return nil
	}
	if c.decider != nil {
		if chanErr := c.decider(productID); chanErr != nil {
			c.errs <- *chanErr
			return nil
		}
	}

	txID := uuid.New().String()
	token := "sandbox-" + uuid.New().String()
	c.updates <- domain.Purchase{
		ProductID:     productID,
		TransactionID: txID,
		// The sandbox mimics the real channel's nested-JSON receipt.
		TransactionReceipt: fmt.Sprintf(`{"productId":%q,"transactionId":%q,"purchaseToken":%q}`, productID, txID, token),
	}
	return nil
}

// FinishTransaction acknowledges a purchase. Repeat finishes of the same
// transaction are no-ops.
func (c *SandboxChannel) FinishTransaction(ctx context.Context, purchase domain.Purchase) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return errors.New("sandbox channel connection already ended")
	}
	c.finished[purchase.TransactionID]++
	return nil
}

// FinishCount reports how many times a transaction was finished. Test
// hook for the idempotent close-out contract.
func (c *SandboxChannel) FinishCount(transactionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished[transactionID]
}

// Updates delivers purchase-updated messages.
func (c *SandboxChannel) Updates() <-chan domain.Purchase { return c.updates }

// Errors delivers purchase-error messages.
func (c *SandboxChannel) Errors() <-chan domain.ChannelError { return c.errs }

// EndConnection closes both message streams and marks the channel ended.
// Safe to call more than once.
func (c *SandboxChannel) EndConnection() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return nil
	}
	c.ended = true
	c.ready = false
	close(c.updates)
	close(c.errs)
	return nil
}
