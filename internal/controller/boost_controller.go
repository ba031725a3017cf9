package controller

import (
	"net/http"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	"github.com/kasoamart/boostpay/internal/service"
	"github.com/go-chi/chi/v5"
)

// BoostController handles boost purchase and status HTTP requests.
type BoostController struct {
	initiateService  *service.InitiateService
	reconcileService *service.ReconcileService
	transactionRepo  boost.Repository
}

// NewBoostController creates a new BoostController.
func NewBoostController(
	initiateService *service.InitiateService,
	reconcileService *service.ReconcileService,
	transactionRepo boost.Repository,
) *BoostController {
	return &BoostController{
		initiateService:  initiateService,
		reconcileService: reconcileService,
		transactionRepo:  transactionRepo,
	}
}

// Create handles POST /api/v1/boosts
func (h *BoostController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBoostRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	listingID := parseUUID(req.ListingID)
	if listingID == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid listing_id", Code: "invalid_id"})
		return
	}
	packageID := parseUUID(req.PackageID)
	if packageID == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid package_id", Code: "invalid_id"})
		return
	}

	txn, err := h.initiateService.Initiate(r.Context(), service.InitiateInput{
		ListingID:   *listingID,
		PackageID:   *packageID,
		PhoneNumber: req.PhoneNumber,
		Network:     boost.Network(req.Network),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// 202: the collection is in flight, the caller should poll for status.
	writeJSON(w, http.StatusAccepted, FromTransaction(txn))
}

// Get handles GET /api/v1/boosts/{id}
func (h *BoostController) Get(w http.ResponseWriter, r *http.Request) {
	id := parseUUID(chi.URLParam(r, "id"))
	if id == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid transaction id", Code: "invalid_id"})
		return
	}

	txn, err := h.transactionRepo.GetByID(r.Context(), *id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromTransaction(txn))
}

// Status handles GET /api/v1/boosts/{id}/status. Each poll actively
// reconciles the transaction, so the answer is authoritative rather
// than a stale read.
func (h *BoostController) Status(w http.ResponseWriter, r *http.Request) {
	id := parseUUID(chi.URLParam(r, "id"))
	if id == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid transaction id", Code: "invalid_id"})
		return
	}

	result, err := h.reconcileService.CheckStatus(r.Context(), *id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromCheckResult(result))
}
