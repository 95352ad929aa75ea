package domain

import "errors"

var (
	// ErrRefreshFailed indicates the purchase-history fetch failed. The
	// local entitlement set is left untouched; a failed refresh must never
	// be read as "no entitlements".
	ErrRefreshFailed = errors.New("entitlement refresh failed")

	// ErrProtocolViolation indicates the backend answered with something
	// other than a JSON array (an HTML error page, typically).
	ErrProtocolViolation = errors.New("purchase history response is not a JSON array")
)
