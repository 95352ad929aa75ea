package domain

import "context"

// Purchase is a purchase update delivered by the platform billing channel.
// The receipt payload is channel-specific: the purchase token may live
// inside the TransactionReceipt JSON string or directly in PurchaseToken.
type Purchase struct {
	ProductID          string
	TransactionID      string
	PurchaseToken      string
	TransactionReceipt string
}

// ChannelErrorCode classifies a purchase-error callback.
type ChannelErrorCode string

const (
	ChannelErrUserCancelled   ChannelErrorCode = "user_cancelled"
	ChannelErrAlreadyOwned    ChannelErrorCode = "already_owned"
	ChannelErrItemUnavailable ChannelErrorCode = "item_unavailable"
	ChannelErrNetwork         ChannelErrorCode = "network_error"
	ChannelErrUnknown         ChannelErrorCode = "unknown"
)

// ChannelError is a purchase-error message from the billing channel.
type ChannelError struct {
	Code      ChannelErrorCode
	ProductID string
	Message   string
}

// Product is the remote product metadata the channel exposes.
type Product struct {
	ProductID      string `json:"product_id"`
	Title          string `json:"title"`
	LocalizedPrice string `json:"localized_price"`
}

// Channel abstracts the platform billing integration. Purchase outcomes
// arrive as tagged messages on the Updates and Errors channels, consumed
// by the orchestrator's event loop.
type Channel interface {
	// InitConnection establishes the billing connection and loads the
	// remote product catalog. Exactly one connection per orchestrator.
	InitConnection(ctx context.Context) error

	// Ready reports whether the connection is established and products
	// are loaded.
	Ready() bool

	// GetProducts returns remote metadata for the given product IDs.
	GetProducts(ctx context.Context, productIDs []string) ([]Product, error)

	// RequestPurchase starts the platform purchase flow for a product.
	// The outcome arrives asynchronously on Updates or Errors.
	RequestPurchase(ctx context.Context, productID string) error

	// FinishTransaction acknowledges a purchase so the platform stops
	// re-delivering it. Finishing the same transaction twice is a no-op.
	FinishTransaction(ctx context.Context, purchase Purchase) error

	// Updates delivers purchase-updated messages.
	Updates() <-chan Purchase

	// Errors delivers purchase-error messages.
	Errors() <-chan ChannelError

	// EndConnection tears the connection down and closes both message
	// channels.
	EndConnection() error
}
