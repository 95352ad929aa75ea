package domain

import (
	"encoding/json"
	"fmt"
)

type receiptPayload struct {
	PurchaseToken string `json:"purchaseToken"`
}

// ExtractToken pulls the purchase token out of an opaque purchase update.
// The receipt format is channel-specific: first the TransactionReceipt is
// tried as a nested JSON document carrying purchaseToken, then the direct
// PurchaseToken field. Both failing is a malformed receipt.
func ExtractToken(p Purchase) (string, error) {
	if p.TransactionReceipt != "" {
		var payload receiptPayload
		if err := json.Unmarshal([]byte(p.TransactionReceipt), &payload); err == nil && payload.PurchaseToken != "" {
			return payload.PurchaseToken, nil
		}
	}
	if p.PurchaseToken != "" {
		return p.PurchaseToken, nil
	}
	return "", fmt.Errorf("%w: no purchase token in receipt for %s", ErrMalformedReceipt, p.ProductID)
}
