package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/kasoamart/boostpay/internal/gateway"
	"github.com/kasoamart/boostpay/internal/testutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconcileFixture struct {
	svc          *ReconcileService
	transactions *testutil.MockTransactionRepository
	packages     *testutil.MockPackageRepository
	listings     *testutil.MockListingRepository
	gw           *testutil.StubGateway
}

func newReconcileFixture() *reconcileFixture {
	f := &reconcileFixture{
		transactions: testutil.NewMockTransactionRepository(),
		packages:     testutil.NewMockPackageRepository(),
		listings:     testutil.NewMockListingRepository(),
		gw:           &testutil.StubGateway{},
	}
	applier := NewBoostApplier(f.packages, f.listings, zerolog.Nop())
	f.svc = NewReconcileService(f.transactions, f.gw, applier, zerolog.Nop(), nil)
	return f
}

// seed stores a pending transaction together with its listing and package.
func (f *reconcileFixture) seed(opts ...func(*boost.Transaction)) *boost.Transaction {
	lst := testutil.NewTestListing()
	pkg := testutil.NewTestPackage()
	f.listings.AddListing(lst)
	f.packages.AddPackage(pkg)

	txn := testutil.NewTestTransaction(append([]func(*boost.Transaction){
		testutil.WithListingID(lst.ID),
		testutil.WithPackageID(pkg.ID),
	}, opts...)...)
	f.transactions.AddTransaction(txn)
	return txn
}

func TestCheckStatus_NotFound(t *testing.T) {
	f := newReconcileFixture()

	_, err := f.svc.CheckStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)
}

func TestCheckStatus_TerminalShortCircuits(t *testing.T) {
	for _, terminal := range []boost.Status{
		boost.StatusSuccess, boost.StatusExpired, boost.StatusCancelled, boost.StatusError,
	} {
		t.Run(string(terminal), func(t *testing.T) {
			f := newReconcileFixture()
			txn := f.seed(testutil.WithStatus(terminal))

			f.gw.QueryStatusFunc = func(ctx context.Context, reference string) (*gateway.StatusResult, error) {
				t.Fatal("gateway must not be consulted for a terminal transaction")
				return nil, nil
			}

			res, err := f.svc.CheckStatus(context.Background(), txn.ID)
			require.NoError(t, err)
			assert.Equal(t, terminal, res.Status)
			assert.Zero(t, f.listings.PremiumCalls())
		})
	}
}

func TestCheckStatus_ExpiresBeforeGatewayCall(t *testing.T) {
	f := newReconcileFixture()
	txn := f.seed(testutil.WithExpiresAt(time.Now().Add(-time.Second)))

	// Even a gateway that would report PAID must not be asked: the
	// window closed first, so a late confirmation cannot resurrect it.
	f.gw.QueryStatusFunc = func(ctx context.Context, reference string) (*gateway.StatusResult, error) {
		t.Fatal("gateway must not be consulted once the window has closed")
		return nil, nil
	}

	res, err := f.svc.CheckStatus(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusExpired, res.Status)

	stored, err := f.transactions.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusExpired, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	assert.Zero(t, f.listings.PremiumCalls())
}

func TestCheckStatus_ExpiryKeepsCollectRef(t *testing.T) {
	f := newReconcileFixture()
	txn := f.seed(
		testutil.WithGatewayRef("mm_col_7"),
		testutil.WithExpiresAt(time.Now().Add(-time.Second)),
	)

	res, err := f.svc.CheckStatus(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusExpired, res.Status)

	// The expiry transition carries no gateway ref; the one recorded at
	// collect time must survive for the audit trail.
	stored, err := f.transactions.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.GatewayRef)
	assert.Equal(t, "mm_col_7", *stored.GatewayRef)
}

func TestCheckStatus_PaidAppliesBoost(t *testing.T) {
	f := newReconcileFixture()
	txn := f.seed()

	f.gw.QueryStatusFunc = func(ctx context.Context, reference string) (*gateway.StatusResult, error) {
		assert.Equal(t, txn.ID.String(), reference)
		return &gateway.StatusResult{Code: gateway.CodePaid, GatewayRef: "mm_col_42"}, nil
	}

	res, err := f.svc.CheckStatus(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusSuccess, res.Status)

	stored, err := f.transactions.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusSuccess, stored.Status)
	require.NotNil(t, stored.GatewayRef)
	assert.Equal(t, "mm_col_42", *stored.GatewayRef)

	require.Equal(t, 1, f.listings.PremiumCalls())
	lst := f.listings.GetListingByID(txn.ListingID)
	require.NotNil(t, lst)
	assert.True(t, lst.IsPremium)
	require.NotNil(t, lst.PremiumUntil)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), *lst.PremiumUntil, 2*time.Second)
}

func TestCheckStatus_CancelledByPayer(t *testing.T) {
	f := newReconcileFixture()
	txn := f.seed()

	f.gw.QueryStatusFunc = func(ctx context.Context, reference string) (*gateway.StatusResult, error) {
		return &gateway.StatusResult{Code: gateway.CodeDeclined, Message: "payer declined prompt"}, nil
	}

	res, err := f.svc.CheckStatus(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusCancelled, res.Status)

	stored, err := f.transactions.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusCancelled, stored.Status)
	assert.Zero(t, f.listings.PremiumCalls())
}

func TestCheckStatus_GatewayWindowClosedExpires(t *testing.T) {
	f := newReconcileFixture()
	txn := f.seed()

	f.gw.QueryStatusFunc = func(ctx context.Context, reference string) (*gateway.StatusResult, error) {
		return &gateway.StatusResult{Code: gateway.CodeTimeout}, nil
	}

	res, err := f.svc.CheckStatus(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusExpired, res.Status)
	assert.Zero(t, f.listings.PremiumCalls())
}

func TestCheckStatus_StillPending(t *testing.T) {
	f := newReconcileFixture()
	txn := f.seed()

	res, err := f.svc.CheckStatus(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusPending, res.Status)

	stored, err := f.transactions.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusPending, stored.Status)
}

func TestCheckStatus_GatewayErrorLeavesPending(t *testing.T) {
	f := newReconcileFixture()
	txn := f.seed()

	f.gw.QueryStatusFunc = func(ctx context.Context, reference string) (*gateway.StatusResult, error) {
		return nil, domainErrors.ErrGatewayUnavailable
	}

	res, err := f.svc.CheckStatus(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusPending, res.Status)

	stored, err := f.transactions.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusPending, stored.Status)
}

func TestCheckStatus_LostRaceReportsWinner(t *testing.T) {
	f := newReconcileFixture()
	txn := f.seed()

	f.gw.QueryStatusFunc = func(ctx context.Context, reference string) (*gateway.StatusResult, error) {
		// A webhook settles the transaction between our read and the
		// conditional update.
		won, err := f.transactions.TransitionFromPending(ctx, txn.ID, boost.StatusCancelled, nil, nil)
		require.NoError(t, err)
		require.True(t, won)
		return &gateway.StatusResult{Code: gateway.CodePaid}, nil
	}

	res, err := f.svc.CheckStatus(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusCancelled, res.Status)
	assert.Zero(t, f.listings.PremiumCalls())
}

func TestCheckStatus_ConcurrentCallersApplyBoostOnce(t *testing.T) {
	f := newReconcileFixture()
	txn := f.seed()

	f.gw.QueryStatusFunc = func(ctx context.Context, reference string) (*gateway.StatusResult, error) {
		return &gateway.StatusResult{Code: gateway.CodePaid, GatewayRef: "mm_col_42"}, nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]boost.Status, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.CheckStatus(context.Background(), txn.ID)
			errs[i] = err
			if res != nil {
				results[i] = res.Status
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, boost.StatusSuccess, results[i])
	}
	assert.Equal(t, 1, f.listings.PremiumCalls())
}

func TestCheckStatus_BoostApplyFailureKeepsSuccess(t *testing.T) {
	f := newReconcileFixture()
	txn := f.seed()
	f.listings.SetPremiumFunc = func(ctx context.Context, id uuid.UUID, until time.Time) error {
		return domainErrors.ErrListingNotFound
	}

	f.gw.QueryStatusFunc = func(ctx context.Context, reference string) (*gateway.StatusResult, error) {
		return &gateway.StatusResult{Code: gateway.CodePaid}, nil
	}

	res, err := f.svc.CheckStatus(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusSuccess, res.Status)

	stored, err := f.transactions.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, boost.StatusSuccess, stored.Status)
}
