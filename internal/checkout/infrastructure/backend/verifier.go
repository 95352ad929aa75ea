// Package backend implements the REST client for the payment backend's
// receipt-verification endpoint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/minilingo/minilingo/internal/checkout/domain"
)

type verifyRequest struct {
	UserID             string `json:"user_id"`
	ProductID          string `json:"productId"`
	PurchaseToken      string `json:"purchaseToken"`
	TransactionReceipt string `json:"transactionReceipt"`
}

type verifyResponse struct {
	Success bool `json:"success"`
}

type verifyOutcome struct {
	accepted bool
}

// Verifier posts purchase receipts to the backend for validation. An
// explicit backend rejection (success:false or a non-2xx status) is a
// verdict, not an error; transport and parse failures are errors and
// leave the verdict unknown.
type Verifier struct {
	baseURL string
	tokenFn func() string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[verifyOutcome]
	logger  *slog.Logger
}

// NewVerifier creates a verification client. tokenFn supplies the current
// session bearer token on each request.
func NewVerifier(baseURL string, tokenFn func() string, timeout time.Duration, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "purchase-verification",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Verifier{
		baseURL: baseURL,
		tokenFn: tokenFn,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[verifyOutcome](settings),
		logger:  logger,
	}
}

// Verify implements domain.ReceiptVerifier.
func (v *Verifier) Verify(ctx context.Context, req domain.VerificationRequest) (domain.VerificationResult, error) {
	outcome, err := v.breaker.Execute(func() (verifyOutcome, error) {
		return v.post(ctx, req)
	})
	if err != nil {
		return domain.VerificationResult{}, err
	}
	return domain.VerificationResult{Accepted: outcome.accepted}, nil
}

func (v *Verifier) post(ctx context.Context, req domain.VerificationRequest) (verifyOutcome, error) {
	body, err := json.Marshal(verifyRequest{
		UserID:             req.UserID.String(),
		ProductID:          req.ProductID,
		PurchaseToken:      req.PurchaseToken,
		TransactionReceipt: req.TransactionReceipt,
	})
	if err != nil {
		return verifyOutcome{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		v.baseURL+"/payment/verify-google-purchase", bytes.NewReader(body))
	if err != nil {
		return verifyOutcome{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token := v.tokenFn(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := v.http.Do(httpReq)
	if err != nil {
		return verifyOutcome{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return verifyOutcome{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		v.logger.Debug("verification rejected by status",
			"product_id", req.ProductID,
			"status", resp.StatusCode,
		)
		return verifyOutcome{accepted: false}, nil
	}

	var parsed verifyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return verifyOutcome{}, fmt.Errorf("malformed verification response: %w", err)
	}
	return verifyOutcome{accepted: parsed.Success}, nil
}
