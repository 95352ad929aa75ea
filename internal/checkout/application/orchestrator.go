// Package application drives the checkout flow: it owns the single
// in-flight purchase attempt, consumes the billing channel's message
// streams, verifies receipts with the backend, and folds verified
// purchases into the entitlement store.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
	"github.com/minilingo/minilingo/internal/checkout/domain"
	entapp "github.com/minilingo/minilingo/internal/entitlements/application"
	entdomain "github.com/minilingo/minilingo/internal/entitlements/domain"
	"github.com/minilingo/minilingo/internal/shared/infrastructure/eventbus"
)

// DefaultVerifyTimeout bounds a single receipt verification call. A hung
// backend must not pin the in-flight slot forever.
const DefaultVerifyTimeout = 30 * time.Second

// OrchestratorConfig configures a purchase orchestrator.
type OrchestratorConfig struct {
	// UserID is the session user all purchases are verified for.
	UserID uuid.UUID

	// VerifyTimeout bounds each backend verification call. Zero means
	// DefaultVerifyTimeout.
	VerifyTimeout time.Duration
}

// Orchestrator runs the purchase state machine. Exactly one channel
// connection and one event-loop goroutine exist per orchestrator; Close
// tears both down. At most one attempt is requesting or verifying at any
// time, which serializes all purchase-side backend calls.
type Orchestrator struct {
	config    OrchestratorConfig
	channel   domain.Channel
	verifier  domain.ReceiptVerifier
	store     *entapp.Store
	selection *domain.Selection
	attempts  domain.AttemptRepository
	notifier  domain.Notifier
	publisher eventbus.Publisher
	logger    *slog.Logger

	mu      sync.Mutex
	current *domain.Attempt
	started bool
	closed  bool

	done     chan struct{}
	loopDone chan struct{}
}

// NewOrchestrator wires an orchestrator. attempts, notifier, and publisher
// may be nil; channel, verifier, store, and selection may not.
func NewOrchestrator(
	config OrchestratorConfig,
	channel domain.Channel,
	verifier domain.ReceiptVerifier,
	store *entapp.Store,
	selection *domain.Selection,
	attempts domain.AttemptRepository,
	notifier domain.Notifier,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if config.VerifyTimeout <= 0 {
		config.VerifyTimeout = DefaultVerifyTimeout
	}
	return &Orchestrator{
		config:    config,
		channel:   channel,
		verifier:  verifier,
		store:     store,
		selection: selection,
		attempts:  attempts,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger,
		done:      make(chan struct{}),
		loopDone:  make(chan struct{}),
	}
}

// Start opens the billing connection and launches the event loop.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return errors.New("orchestrator already started")
	}
	if o.closed {
		o.mu.Unlock()
		return domain.ErrNotReady
	}
	o.started = true
	o.mu.Unlock()

	if err := o.channel.InitConnection(ctx); err != nil {
		// The loop never launches, so Close must not wait for it.
		close(o.loopDone)
		return fmt.Errorf("%w: %w", domain.ErrNotReady, err)
	}

	go o.loop()
	return nil
}

// Close removes both message subscriptions, ends the channel connection,
// and waits for the event loop to drain. An in-flight verification is
// allowed to complete and apply its entitlement effects, but no user
// notification is emitted after Close.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	started := o.started
	o.mu.Unlock()

	close(o.done)
	err := o.channel.EndConnection()
	if started {
		<-o.loopDone
	}
	return err
}

// Purchase initiates the platform purchase flow for one offering. It
// fails fast when the channel is not ready, when the offering is not in
// the purchasable cart, or when another attempt is already in flight.
func (o *Orchestrator) Purchase(ctx context.Context, offering catalog.Offering) (*domain.Attempt, error) {
	if !o.channel.Ready() {
		return nil, domain.ErrNotReady
	}
	if !o.selection.IsPurchasable(offering) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotPurchasable, offering.ProductID)
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, domain.ErrNotReady
	}
	if o.current != nil && o.current.Active() {
		o.mu.Unlock()
		return nil, domain.ErrAlreadyInFlight
	}
	attempt := domain.NewAttempt(offering)
	o.current = attempt
	o.mu.Unlock()

	o.logger.Info("purchase requested",
		"attempt_id", attempt.ID.String(),
		"product_id", offering.ProductID,
	)

	if err := o.channel.RequestPurchase(ctx, offering.ProductID); err != nil {
		attempt.MarkFailed(fmt.Errorf("%w: %w", domain.ErrNetworkError, err))
		o.settle(attempt, "the purchase flow could not be started", false)
		return attempt, err
	}
	return attempt, nil
}

// CurrentAttempt returns the attempt occupying the in-flight slot, nil
// when there is none.
func (o *Orchestrator) CurrentAttempt() *domain.Attempt {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

func (o *Orchestrator) loop() {
	defer close(o.loopDone)

	updates := o.channel.Updates()
	errs := o.channel.Errors()

	for {
		select {
		case <-o.done:
			return
		case p, ok := <-updates:
			if !ok {
				return
			}
			o.handleUpdate(p)
		case e, ok := <-errs:
			if !ok {
				return
			}
			o.handleChannelError(e)
		}
	}
}

func (o *Orchestrator) handleUpdate(p domain.Purchase) {
	offering, ok := catalog.OfferingByProductID(p.ProductID)
	if !ok {
		o.logger.Warn("purchase update for unknown product", "product_id", p.ProductID)
		return
	}

	o.mu.Lock()
	attempt := o.current
	solicited := attempt != nil && attempt.Active() && attempt.Offering.ProductID == p.ProductID
	if !solicited {
		if attempt != nil && attempt.Active() {
			// A different purchase occupies the in-flight slot. The
			// platform re-delivers unfinished transactions, so this update
			// is not lost.
			o.mu.Unlock()
			o.logger.Warn("deferring redelivered purchase, another attempt active",
				"product_id", p.ProductID,
			)
			return
		}
		// Redelivery of an unfinished transaction (restore flow). Claim
		// the slot so verification stays serialized.
		attempt = domain.NewAttempt(offering)
		o.current = attempt
	}
	o.mu.Unlock()

	attempt.BeginVerification()
	o.verify(attempt, p)
}

func (o *Orchestrator) verify(attempt *domain.Attempt, p domain.Purchase) {
	token, err := domain.ExtractToken(p)
	if err != nil {
		attempt.MarkFailed(err)
		o.settle(attempt, "the purchase receipt could not be read", false)
		return
	}

	// Deliberately detached from any screen context: teardown during
	// verification must not lose a paid purchase.
	ctx, cancel := context.WithTimeout(context.Background(), o.config.VerifyTimeout)
	defer cancel()

	result, err := o.verifier.Verify(ctx, domain.VerificationRequest{
		UserID:             o.config.UserID,
		ProductID:          p.ProductID,
		PurchaseToken:      token,
		TransactionReceipt: p.TransactionReceipt,
	})
	if err != nil {
		attempt.MarkFailed(fmt.Errorf("%w: %w", domain.ErrVerificationUnreachable, err))
		o.settle(attempt, "the purchase could not be verified right now; it will be restored automatically", false)
		return
	}
	if !result.Accepted {
		// Leave the transaction unfinished so the platform's restore
		// mechanism can retry it, and leave the store untouched.
		attempt.MarkFailed(domain.ErrVerificationFailed)
		o.settle(attempt, "the store rejected this purchase", false)
		return
	}

	// Acknowledge first so the platform stops re-delivering, then grant.
	if err := o.channel.FinishTransaction(ctx, p); err != nil {
		o.logger.Warn("failed to finish transaction",
			"product_id", p.ProductID,
			"error", err,
		)
	}
	o.store.Add(entdomain.Record{
		Language: attempt.Offering.Language,
		Level:    attempt.Offering.Level,
	})
	attempt.MarkVerified()
	o.settle(attempt, fmt.Sprintf("%s %s unlocked", attempt.Offering.Language, attempt.Offering.Level.DisplayLabel()), false)

	// Reconcile entitlements granted server-side alongside this one.
	if err := o.store.Refresh(ctx, o.config.UserID); err != nil {
		o.logger.Warn("post-purchase entitlement refresh failed", "error", err)
	}
}

func (o *Orchestrator) handleChannelError(e domain.ChannelError) {
	o.mu.Lock()
	attempt := o.current
	o.mu.Unlock()
	active := attempt != nil && attempt.Active()

	switch e.Code {
	case domain.ChannelErrUserCancelled:
		if !active {
			return
		}
		attempt.MarkCancelled()
		// Cancellation is silent.
		o.settle(attempt, "", false)

	case domain.ChannelErrAlreadyOwned:
		if active {
			attempt.MarkFailed(domain.ErrAlreadyOwned)
			o.settle(attempt, "you already own this course; restoring it now", true)
		}
		// Local state was stale; the authoritative set has the answer.
		ctx, cancel := context.WithTimeout(context.Background(), o.config.VerifyTimeout)
		defer cancel()
		if err := o.store.Refresh(ctx, o.config.UserID); err != nil {
			o.logger.Warn("refresh after already-owned report failed", "error", err)
		}

	case domain.ChannelErrItemUnavailable:
		if !active {
			return
		}
		attempt.MarkFailed(fmt.Errorf("%w: %s", domain.ErrItemUnavailable, e.ProductID))
		o.settle(attempt, "this course is currently unavailable for purchase", false)

	case domain.ChannelErrNetwork:
		if !active {
			return
		}
		attempt.MarkFailed(fmt.Errorf("%w: %s", domain.ErrNetworkError, e.Message))
		o.settle(attempt, "the store could not be reached; please try again", false)

	default:
		if !active {
			return
		}
		attempt.MarkFailed(fmt.Errorf("purchase failed (%s): %s", e.Code, e.Message))
		o.settle(attempt, fmt.Sprintf("purchase failed: %s", e.Code), false)
	}
}

// settle records a terminal attempt, publishes its outcome event, and
// surfaces a message to the user unless the orchestrator is closed or the
// message is empty (cancellation).
func (o *Orchestrator) settle(attempt *domain.Attempt, message string, informational bool) {
	o.persist(attempt)

	switch attempt.State() {
	case domain.AttemptVerified:
		o.publishOutcome(eventbus.RoutingKeyPurchaseVerified, attempt)
	case domain.AttemptFailed:
		o.publishOutcome(eventbus.RoutingKeyPurchaseFailed, attempt)
	}

	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()

	if closed || o.notifier == nil || message == "" {
		return
	}
	if informational || attempt.State() == domain.AttemptVerified {
		o.notifier.Info(message)
	} else {
		o.notifier.Failure(message)
	}
}

func (o *Orchestrator) persist(attempt *domain.Attempt) {
	if o.attempts == nil {
		return
	}
	cause := ""
	if c := attempt.Cause(); c != nil {
		cause = c.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := o.attempts.Save(ctx, domain.AttemptRecord{
		ID:        attempt.ID,
		UserID:    o.config.UserID,
		ProductID: attempt.Offering.ProductID,
		Language:  attempt.Offering.Language,
		Level:     attempt.Offering.Level,
		State:     attempt.State(),
		Cause:     cause,
	})
	if err != nil {
		o.logger.Warn("failed to record purchase attempt",
			"attempt_id", attempt.ID.String(),
			"error", err,
		)
	}
}

type purchaseOutcomeEvent struct {
	UserID    string `json:"user_id"`
	AttemptID string `json:"attempt_id"`
	ProductID string `json:"product_id"`
	Language  string `json:"language"`
	Level     string `json:"level"`
	State     string `json:"state"`
	Cause     string `json:"cause,omitempty"`
}

func (o *Orchestrator) publishOutcome(routingKey string, attempt *domain.Attempt) {
	if o.publisher == nil {
		return
	}
	cause := ""
	if c := attempt.Cause(); c != nil {
		cause = c.Error()
	}
	payload, err := eventbus.Envelope(routingKey, o.config.UserID, purchaseOutcomeEvent{
		UserID:    o.config.UserID.String(),
		AttemptID: attempt.ID.String(),
		ProductID: attempt.Offering.ProductID,
		Language:  attempt.Offering.Language,
		Level:     string(attempt.Offering.Level),
		State:     string(attempt.State()),
		Cause:     cause,
	})
	if err != nil {
		o.logger.Warn("failed to build purchase outcome event", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.publisher.Publish(ctx, routingKey, payload); err != nil {
		o.logger.Warn("failed to publish purchase outcome", "error", err)
	}
}
