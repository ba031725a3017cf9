package service

import (
	"context"
	"testing"
	"time"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/kasoamart/boostpay/internal/domain/outbox"
	"github.com/kasoamart/boostpay/internal/gateway"
	"github.com/kasoamart/boostpay/internal/testutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type initiateFixture struct {
	svc          *InitiateService
	transactions *testutil.MockTransactionRepository
	packages     *testutil.MockPackageRepository
	listings     *testutil.MockListingRepository
	outboxRepo   *testutil.MockOutboxRepository
	gw           *testutil.StubGateway
}

func newInitiateFixture() *initiateFixture {
	f := &initiateFixture{
		transactions: testutil.NewMockTransactionRepository(),
		packages:     testutil.NewMockPackageRepository(),
		listings:     testutil.NewMockListingRepository(),
		outboxRepo:   &testutil.MockOutboxRepository{},
		gw:           &testutil.StubGateway{},
	}
	f.svc = NewInitiateService(
		f.transactions,
		f.packages,
		f.listings,
		f.outboxRepo,
		testutil.NewMockTransactionManager(),
		f.gw,
		boost.PaymentWindow,
		"http://localhost:8080/api/v1/webhooks/collection",
		zerolog.Nop(),
		nil,
	)
	return f
}

func TestInitiate_Success(t *testing.T) {
	f := newInitiateFixture()
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage()
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	var collected gateway.CollectRequest
	f.gw.CollectFunc = func(ctx context.Context, req gateway.CollectRequest) (*gateway.CollectResult, error) {
		collected = req
		return &gateway.CollectResult{GatewayRef: "mm_col_42"}, nil
	}

	txn, err := f.svc.Initiate(context.Background(), InitiateInput{
		ListingID:   lst.ID,
		PackageID:   pkg.ID,
		PhoneNumber: "024 412 3456",
		Network:     boost.NetworkMTN,
	})
	require.NoError(t, err)

	assert.Equal(t, boost.StatusPending, txn.Status)
	assert.Equal(t, "0244123456", txn.PhoneNumber)
	assert.WithinDuration(t, time.Now().Add(boost.PaymentWindow), txn.ExpiresAt, 2*time.Second)
	require.NotNil(t, txn.GatewayRef)
	assert.Equal(t, "mm_col_42", *txn.GatewayRef)

	assert.Equal(t, txn.ID.String(), collected.Reference)
	assert.Equal(t, pkg.PriceCents, collected.AmountCents)
	assert.Equal(t, "GHS", collected.Currency)
	assert.Equal(t, "mtn", collected.Network)

	stored, err := f.transactions.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusPending, stored.Status)

	entries := f.outboxRepo.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "boost.collection_initiated", entries[0].EventType)
	assert.Equal(t, txn.ID, entries[0].AggregateID)
	assert.Equal(t, outbox.StatusPending, entries[0].Status)
}

func TestInitiate_UnknownNetwork(t *testing.T) {
	f := newInitiateFixture()

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		ListingID:   uuid.New(),
		PackageID:   uuid.New(),
		PhoneNumber: "0244123456",
		Network:     boost.Network("orange"),
	})
	assert.ErrorIs(t, err, domainErrors.ErrUnknownNetwork)
}

func TestInitiate_PhoneDoesNotMatchNetwork(t *testing.T) {
	f := newInitiateFixture()
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage()
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	// 020 is a Vodafone prefix, not MTN.
	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		ListingID:   lst.ID,
		PackageID:   pkg.ID,
		PhoneNumber: "0204123456",
		Network:     boost.NetworkMTN,
	})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidPhoneNumber)
}

func TestInitiate_ListingNotFound(t *testing.T) {
	f := newInitiateFixture()
	pkg := testutil.NewTestPackage()
	f.packages.AddPackage(pkg)

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		ListingID:   uuid.New(),
		PackageID:   pkg.ID,
		PhoneNumber: "0244123456",
		Network:     boost.NetworkMTN,
	})
	assert.ErrorIs(t, err, domainErrors.ErrListingNotFound)
}

func TestInitiate_InactivePackage(t *testing.T) {
	f := newInitiateFixture()
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage(testutil.WithActive(false))
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		ListingID:   lst.ID,
		PackageID:   pkg.ID,
		PhoneNumber: "0244123456",
		Network:     boost.NetworkMTN,
	})
	assert.ErrorIs(t, err, domainErrors.ErrUnknownPackage)
}

func TestInitiate_GatewayRejectionFailsFast(t *testing.T) {
	f := newInitiateFixture()
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage()
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	f.gw.CollectFunc = func(ctx context.Context, req gateway.CollectRequest) (*gateway.CollectResult, error) {
		return nil, domainErrors.ErrGatewayRejected
	}

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		ListingID:   lst.ID,
		PackageID:   pkg.ID,
		PhoneNumber: "0244123456",
		Network:     boost.NetworkMTN,
	})
	require.ErrorIs(t, err, domainErrors.ErrGatewayRejected)

	// The row was still created and moved straight to error.
	entries := f.outboxRepo.Entries()
	require.Len(t, entries, 1)
	stored, getErr := f.transactions.GetByID(context.Background(), entries[0].AggregateID)
	require.NoError(t, getErr)
	assert.Equal(t, boost.StatusError, stored.Status)
	require.NotNil(t, stored.FailureReason)
	assert.Contains(t, *stored.FailureReason, "rejected")
}

func TestInitiate_NormalizesInternationalFormat(t *testing.T) {
	f := newInitiateFixture()
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage()
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	txn, err := f.svc.Initiate(context.Background(), InitiateInput{
		ListingID:   lst.ID,
		PackageID:   pkg.ID,
		PhoneNumber: "+233244123456",
		Network:     boost.NetworkMTN,
	})
	require.NoError(t, err)
	assert.Equal(t, "0244123456", txn.PhoneNumber)
}
