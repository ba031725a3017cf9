package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/kasoamart/boostpay/internal/gateway"
	"github.com/kasoamart/boostpay/internal/service"
	"github.com/kasoamart/boostpay/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFixture struct {
	router       *chi.Mux
	transactions *testutil.MockTransactionRepository
	packages     *testutil.MockPackageRepository
	listings     *testutil.MockListingRepository
	gw           *testutil.StubGateway
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		transactions: testutil.NewMockTransactionRepository(),
		packages:     testutil.NewMockPackageRepository(),
		listings:     testutil.NewMockListingRepository(),
		gw:           &testutil.StubGateway{},
	}

	initiateSvc := service.NewInitiateService(
		f.transactions, f.packages, f.listings,
		&testutil.MockOutboxRepository{},
		testutil.NewMockTransactionManager(),
		f.gw,
		boost.PaymentWindow,
		"http://localhost:8080/api/v1/webhooks/collection",
		zerolog.Nop(),
		nil,
	)
	applier := service.NewBoostApplier(f.packages, f.listings, zerolog.Nop())
	reconcileSvc := service.NewReconcileService(f.transactions, f.gw, applier, zerolog.Nop(), nil)

	boostH := NewBoostController(initiateSvc, reconcileSvc, f.transactions)
	webhookH := NewWebhookController(reconcileSvc, zerolog.Nop())
	catalogH := NewCatalogController(f.packages)

	r := chi.NewRouter()
	r.Post("/api/v1/boosts", boostH.Create)
	r.Get("/api/v1/boosts/{id}", boostH.Get)
	r.Get("/api/v1/boosts/{id}/status", boostH.Status)
	r.Get("/api/v1/packages", catalogH.List)
	r.Post("/api/v1/webhooks/collection", webhookH.Collection)
	f.router = r
	return f
}

func (f *handlerFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCreateBoost_Accepted(t *testing.T) {
	f := newHandlerFixture()
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage()
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	w := f.do(t, "POST", "/api/v1/boosts", CreateBoostRequest{
		ListingID:   lst.ID.String(),
		PackageID:   pkg.ID.String(),
		PhoneNumber: "0244123456",
		Network:     "mtn",
	})

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp TransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, lst.ID.String(), resp.ListingID)
	assert.WithinDuration(t, time.Now().Add(boost.PaymentWindow), resp.ExpiresAt, 2*time.Second)
}

func TestCreateBoost_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  CreateBoostRequest
	}{
		{"missing listing", CreateBoostRequest{PackageID: uuid.NewString(), PhoneNumber: "0244123456", Network: "mtn"}},
		{"bad network", CreateBoostRequest{ListingID: uuid.NewString(), PackageID: uuid.NewString(), PhoneNumber: "0244123456", Network: "orange"}},
		{"missing phone", CreateBoostRequest{ListingID: uuid.NewString(), PackageID: uuid.NewString(), Network: "mtn"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture()
			w := f.do(t, "POST", "/api/v1/boosts", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "validation_error", resp.Code)
		})
	}
}

func TestCreateBoost_WrongCarrierPrefix(t *testing.T) {
	f := newHandlerFixture()
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage()
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	w := f.do(t, "POST", "/api/v1/boosts", CreateBoostRequest{
		ListingID:   lst.ID.String(),
		PackageID:   pkg.ID.String(),
		PhoneNumber: "0204123456", // vodafone prefix
		Network:     "mtn",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_phone_number", resp.Code)
}

func TestCreateBoost_GatewayRejected(t *testing.T) {
	f := newHandlerFixture()
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage()
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	f.gw.CollectFunc = func(ctx context.Context, req gateway.CollectRequest) (*gateway.CollectResult, error) {
		return nil, domainErrors.ErrGatewayRejected
	}

	w := f.do(t, "POST", "/api/v1/boosts", CreateBoostRequest{
		ListingID:   lst.ID.String(),
		PackageID:   pkg.ID.String(),
		PhoneNumber: "0244123456",
		Network:     "mtn",
	})

	require.Equal(t, http.StatusBadGateway, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "gateway_rejected", resp.Code)
}

func TestGetBoost_NotFound(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, "GET", "/api/v1/boosts/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBoostStatus_ReconcilesOnPoll(t *testing.T) {
	f := newHandlerFixture()
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage()
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	txn := testutil.NewTestTransaction(
		testutil.WithListingID(lst.ID),
		testutil.WithPackageID(pkg.ID),
	)
	f.transactions.AddTransaction(txn)

	f.gw.QueryStatusFunc = func(ctx context.Context, reference string) (*gateway.StatusResult, error) {
		return &gateway.StatusResult{Code: gateway.CodePaid, GatewayRef: "mm_col_9"}, nil
	}

	w := f.do(t, "GET", "/api/v1/boosts/"+txn.ID.String()+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 1, f.listings.PremiumCalls())
}

func TestBoostStatus_ExpiredWindow(t *testing.T) {
	f := newHandlerFixture()
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage()
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	txn := testutil.NewTestTransaction(
		testutil.WithListingID(lst.ID),
		testutil.WithPackageID(pkg.ID),
		testutil.WithExpiresAt(time.Now().Add(-time.Minute)),
	)
	f.transactions.AddTransaction(txn)

	w := f.do(t, "GET", "/api/v1/boosts/"+txn.ID.String()+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "expired", resp.Status)
}

func TestBoostStatus_InvalidID(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, "GET", "/api/v1/boosts/not-a-uuid/status", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_TriggersReconciliation(t *testing.T) {
	f := newHandlerFixture()
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage()
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	txn := testutil.NewTestTransaction(
		testutil.WithListingID(lst.ID),
		testutil.WithPackageID(pkg.ID),
	)
	f.transactions.AddTransaction(txn)

	f.gw.QueryStatusFunc = func(ctx context.Context, reference string) (*gateway.StatusResult, error) {
		return &gateway.StatusResult{Code: gateway.CodePaid}, nil
	}

	w := f.do(t, "POST", "/api/v1/webhooks/collection", CollectionWebhookRequest{
		Reference: txn.ID.String(),
		Status:    "PAID",
	})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := f.transactions.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusSuccess, stored.Status)
	assert.Equal(t, 1, f.listings.PremiumCalls())
}

func TestWebhook_PostedStatusIsNotTrusted(t *testing.T) {
	f := newHandlerFixture()
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage()
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	txn := testutil.NewTestTransaction(
		testutil.WithListingID(lst.ID),
		testutil.WithPackageID(pkg.ID),
	)
	f.transactions.AddTransaction(txn)

	// The webhook claims PAID but the gateway says pending. The
	// transaction must stay pending and no boost may be applied.
	w := f.do(t, "POST", "/api/v1/webhooks/collection", CollectionWebhookRequest{
		Reference: txn.ID.String(),
		Status:    "PAID",
	})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := f.transactions.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusPending, stored.Status)
	assert.Zero(t, f.listings.PremiumCalls())
}

func TestWebhook_UnknownReferenceAcknowledged(t *testing.T) {
	f := newHandlerFixture()

	// A reference we never issued cannot be processed, but a 404 would
	// only make the gateway keep retrying the delivery.
	w := f.do(t, "POST", "/api/v1/webhooks/collection", CollectionWebhookRequest{
		Reference: uuid.New().String(),
		Status:    "PAID",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ignored", resp["status"])
}

func TestListPackages(t *testing.T) {
	f := newHandlerFixture()
	f.packages.AddPackage(testutil.NewTestPackage())
	f.packages.AddPackage(testutil.NewTestPackage(testutil.WithActive(false)))

	w := f.do(t, "GET", "/api/v1/packages", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Packages []PackageResponse `json:"packages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Packages, 1)
}
