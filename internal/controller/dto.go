package controller

import (
	"time"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	"github.com/kasoamart/boostpay/internal/domain/catalog"
	"github.com/kasoamart/boostpay/internal/service"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (string IDs, validation tags).
// Controllers convert these before calling business logic.

// CreateBoostRequest holds the input for starting a boost purchase.
type CreateBoostRequest struct {
	ListingID   string `json:"listing_id" validate:"required,uuid"`
	PackageID   string `json:"package_id" validate:"required,uuid"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Network     string `json:"network" validate:"required,oneof=mtn vodafone airteltigo"`
}

// CollectionWebhookRequest is the gateway's callback payload. It is a
// hint only: the reconciler re-queries the gateway rather than trusting
// the posted status.
type CollectionWebhookRequest struct {
	Reference  string `json:"reference" validate:"required,uuid"`
	GatewayRef string `json:"gateway_ref"`
	Status     string `json:"status"`
}

// --- Response DTOs ---

// TransactionResponse represents a boost transaction in API responses.
type TransactionResponse struct {
	ID            string     `json:"id"`
	ListingID     string     `json:"listing_id"`
	PackageID     string     `json:"package_id"`
	PhoneNumber   string     `json:"phone_number"`
	Network       string     `json:"network"`
	Status        string     `json:"status"`
	ExpiresAt     time.Time  `json:"expires_at"`
	GatewayRef    *string    `json:"gateway_ref,omitempty"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// StatusResponse is the polling endpoint's answer.
type StatusResponse struct {
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
	Message       string    `json:"message,omitempty"`
}

// PackageResponse represents a boost package in API responses.
type PackageResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DurationDays int    `json:"duration_days"`
	PriceCents   int64  `json:"price_cents"`
	Currency     string `json:"currency"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromTransaction converts a domain transaction to API response.
func FromTransaction(t *boost.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:            t.ID.String(),
		ListingID:     t.ListingID.String(),
		PackageID:     t.PackageID.String(),
		PhoneNumber:   t.PhoneNumber,
		Network:       string(t.Network),
		Status:        string(t.Status),
		ExpiresAt:     t.ExpiresAt,
		GatewayRef:    t.GatewayRef,
		FailureReason: t.FailureReason,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
	}
}

// FromCheckResult converts a reconciler result to API response.
func FromCheckResult(r *service.CheckResult) *StatusResponse {
	return &StatusResponse{
		TransactionID: r.TransactionID.String(),
		Status:        string(r.Status),
		ExpiresAt:     r.ExpiresAt,
		Message:       r.Message,
	}
}

// FromPackage converts a catalog package to API response.
func FromPackage(p *catalog.Package) *PackageResponse {
	return &PackageResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		DurationDays: p.DurationDays,
		PriceCents:   p.PriceCents,
		Currency:     p.Currency,
	}
}
