package controller

import (
	"errors"
	"net/http"

	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/kasoamart/boostpay/internal/service"
	"github.com/rs/zerolog"
)

// WebhookController receives gateway callbacks. The posted status is
// treated as a wake-up call only: the reconciler re-queries the gateway,
// so a forged or stale webhook can never flip a transaction's state.
type WebhookController struct {
	reconcileService *service.ReconcileService
	logger           zerolog.Logger
}

func NewWebhookController(reconcileService *service.ReconcileService, logger zerolog.Logger) *WebhookController {
	return &WebhookController{
		reconcileService: reconcileService,
		logger:           logger.With().Str("component", "webhook_controller").Logger(),
	}
}

// Collection handles POST /api/v1/webhooks/collection
func (h *WebhookController) Collection(w http.ResponseWriter, r *http.Request) {
	var req CollectionWebhookRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := parseUUID(req.Reference)
	if id == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid reference", Code: "invalid_id"})
		return
	}

	result, err := h.reconcileService.CheckStatus(r.Context(), *id)
	if err != nil {
		// A reference we never issued can never be processed; answer 200
		// so the gateway stops retrying the delivery.
		if errors.Is(err, domainErrors.ErrTransactionNotFound) {
			h.logger.Warn().Str("reference", req.Reference).Msg("webhook for unknown reference ignored")
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		// Everything else is logged and retried by the gateway.
		h.logger.Warn().Err(err).Str("reference", req.Reference).Msg("webhook reconciliation failed")
		writeError(w, err)
		return
	}

	h.logger.Info().
		Str("reference", req.Reference).
		Str("posted_status", req.Status).
		Str("reconciled_status", string(result.Status)).
		Msg("collection webhook processed")

	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}
