package domain

import (
	"context"

	"github.com/google/uuid"
	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
)

// VerificationRequest is what the backend needs to validate a receipt.
type VerificationRequest struct {
	UserID             uuid.UUID
	ProductID          string
	PurchaseToken      string
	TransactionReceipt string
}

// VerificationResult reports the backend's verdict. Accepted=false with a
// nil error is an explicit rejection; transport and parse failures are
// returned as errors and mean the verdict is unknown.
type VerificationResult struct {
	Accepted bool
}

// ReceiptVerifier validates a platform purchase receipt with the backend.
type ReceiptVerifier interface {
	Verify(ctx context.Context, req VerificationRequest) (VerificationResult, error)
}

// AttemptRecord is the persisted form of a terminal purchase attempt.
type AttemptRecord struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID string
	Language  string
	Level     catalog.LevelCode
	State     AttemptState
	Cause     string
}

// AttemptRepository stores terminal purchase attempts for support and
// reconciliation. Writes are best-effort; a failing repository must not
// affect the purchase flow.
type AttemptRepository interface {
	Save(ctx context.Context, record AttemptRecord) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]AttemptRecord, error)
}

// Notifier surfaces purchase outcomes to the user. Cancellation is never
// surfaced; informational notices and failures are.
type Notifier interface {
	Info(message string)
	Failure(message string)
}
