package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
)

// AttemptState is the lifecycle state of a purchase attempt.
type AttemptState string

const (
	// AttemptRequesting: the platform purchase flow has been initiated.
	AttemptRequesting AttemptState = "requesting"
	// AttemptVerifying: a purchase update arrived and the receipt is being
	// verified with the backend.
	AttemptVerifying AttemptState = "verifying"
	// AttemptVerified: the backend confirmed the receipt; the entitlement
	// has been granted.
	AttemptVerified AttemptState = "verified"
	// AttemptFailed: terminal failure; Cause carries the taxonomy error.
	AttemptFailed AttemptState = "failed"
	// AttemptCancelled: the user dismissed the platform purchase UI.
	AttemptCancelled AttemptState = "cancelled"
)

// Attempt tracks one purchase of one offering from request to terminal
// state. At most one attempt may be active (requesting or verifying) at a
// time; the orchestrator enforces that.
type Attempt struct {
	ID       uuid.UUID
	Offering catalog.Offering

	mu        sync.Mutex
	state     AttemptState
	cause     error
	createdAt time.Time
	updatedAt time.Time
	done      chan struct{}
}

// NewAttempt creates an attempt in the requesting state.
func NewAttempt(offering catalog.Offering) *Attempt {
	now := time.Now().UTC()
	return &Attempt{
		ID:        uuid.New(),
		Offering:  offering,
		state:     AttemptRequesting,
		createdAt: now,
		updatedAt: now,
		done:      make(chan struct{}),
	}
}

// State returns the current state.
func (a *Attempt) State() AttemptState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Cause returns why the attempt ended: a taxonomy error for failed and
// cancelled attempts, nil otherwise.
func (a *Attempt) Cause() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cause
}

// Active reports whether the attempt still occupies the single in-flight
// slot.
func (a *Attempt) Active() bool {
	switch a.State() {
	case AttemptRequesting, AttemptVerifying:
		return true
	}
	return false
}

// Terminal reports whether the attempt reached a final state.
func (a *Attempt) Terminal() bool { return !a.Active() }

// Done is closed once the attempt reaches a terminal state.
func (a *Attempt) Done() <-chan struct{} { return a.done }

// CreatedAt returns when the attempt was started.
func (a *Attempt) CreatedAt() time.Time { return a.createdAt }

// UpdatedAt returns when the attempt last changed state.
func (a *Attempt) UpdatedAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.updatedAt
}

// BeginVerification moves requesting → verifying.
func (a *Attempt) BeginVerification() {
	a.transition(AttemptVerifying, nil)
}

// MarkVerified moves the attempt to its verified terminal state.
func (a *Attempt) MarkVerified() {
	a.transition(AttemptVerified, nil)
}

// MarkFailed moves the attempt to the failed terminal state with a cause.
func (a *Attempt) MarkFailed(cause error) {
	a.transition(AttemptFailed, cause)
}

// MarkCancelled moves the attempt to the cancelled terminal state. The
// cause is recorded for the audit trail; the outcome is never surfaced to
// the user.
func (a *Attempt) MarkCancelled() {
	a.transition(AttemptCancelled, ErrUserCancelled)
}

func (a *Attempt) transition(next AttemptState, cause error) {
	a.mu.Lock()
	if a.terminalLocked() {
		// Terminal states are final; late callbacks cannot resurrect an
		// attempt.
		a.mu.Unlock()
		return
	}
	a.state = next
	a.cause = cause
	a.updatedAt = time.Now().UTC()
	terminal := a.terminalLocked()
	a.mu.Unlock()

	if terminal {
		close(a.done)
	}
}

func (a *Attempt) terminalLocked() bool {
	switch a.state {
	case AttemptVerified, AttemptFailed, AttemptCancelled:
		return true
	}
	return false
}
