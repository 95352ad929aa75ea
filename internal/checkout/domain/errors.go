package domain

import "errors"

// Error taxonomy of the checkout flow. Everything is caught at the
// orchestration boundary and converted to a terminal attempt state plus a
// user-facing message; nothing propagates as an unhandled fault.
var (
	// ErrNotReady indicates the purchase channel connection is not
	// established or the remote product catalog is not loaded.
	ErrNotReady = errors.New("purchase channel not ready")

	// ErrAlreadyInFlight indicates a purchase attempt is already pending
	// or verifying. Concurrent attempts are rejected, not queued.
	ErrAlreadyInFlight = errors.New("another purchase is already in flight")

	// ErrNotPurchasable indicates the offering is not in the purchasable
	// selection set (not selected, or already owned).
	ErrNotPurchasable = errors.New("offering is not purchasable")

	// ErrMalformedReceipt indicates no purchase token could be extracted
	// from the receipt payload.
	ErrMalformedReceipt = errors.New("malformed purchase receipt")

	// ErrVerificationFailed indicates the backend explicitly rejected the
	// receipt. The platform transaction is left unfinished so the
	// platform's own restore mechanism can retry it.
	ErrVerificationFailed = errors.New("purchase verification rejected")

	// ErrVerificationUnreachable indicates a network or parse failure
	// while contacting the verification backend.
	ErrVerificationUnreachable = errors.New("purchase verification unreachable")

	// ErrUserCancelled indicates the user dismissed the platform purchase
	// UI. Not a failure; surfaced silently.
	ErrUserCancelled = errors.New("purchase cancelled by user")

	// ErrAlreadyOwned indicates the platform reports the item as owned
	// while the local entitlement set does not. Triggers a refresh.
	ErrAlreadyOwned = errors.New("item already owned")

	// ErrItemUnavailable indicates the platform reports the product as
	// unavailable for purchase.
	ErrItemUnavailable = errors.New("item unavailable")

	// ErrNetworkError indicates a platform-reported network failure.
	ErrNetworkError = errors.New("purchase channel network error")
)
