package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/app/service/guard"
	"github.com/fatflowers/payrecon/internal/app/service/notifier"
	"github.com/fatflowers/payrecon/internal/app/service/subscription"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/store"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/metrics"
	"github.com/fatflowers/payrecon/pkg/types"
)

var refTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// faultStore wraps the memory store with switchable failures and a read counter.
type faultStore struct {
	*store.Memory
	mu             sync.Mutex
	getPaymentErr  error
	putSubErr      error
	paymentReads   int
	putPaymentErrs int
}

func (f *faultStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	f.mu.Lock()
	f.paymentReads++
	err := f.getPaymentErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Memory.GetPayment(ctx, id)
}

func (f *faultStore) PutSubscription(ctx context.Context, s *models.Subscription) error {
	f.mu.Lock()
	err := f.putSubErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Memory.PutSubscription(ctx, s)
}

func (f *faultStore) setPutSubErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putSubErr = err
}

type notifyCall struct {
	userID  string
	endDate time.Time
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, endDate time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{userID: userID, endDate: endDate})
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type fixture struct {
	r        *Reconciler
	st       *faultStore
	notifier *recordingNotifier
}

func testConfig() *config.Config {
	return &config.Config{
		Store:    config.StoreConfig{Timeout: time.Second},
		Notifier: config.NotifierConfig{Timeout: time.Second},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	st := &faultStore{Memory: store.NewMemory()}
	locker := guard.NewLocal(5 * time.Second)
	log := zap.NewNop().Sugar()
	ledger := subscription.NewService(cfg, st, locker, log)
	rn := &recordingNotifier{}
	r := New(cfg, st, locker, ledger, rn, metrics.NewReconcileMetrics(prometheus.NewRegistry(), nil), log)
	r.now = func() time.Time { return refTime }
	return &fixture{r: r, st: st, notifier: rn}
}

func (f *fixture) seed(t *testing.T, paymentID, userID string, days int) {
	t.Helper()
	_, created, err := f.r.RegisterPayment(context.Background(), &models.Payment{PaymentID: paymentID, UserID: userID, PlanID: "month", Days: days})
	require.NoError(t, err)
	require.True(t, created)
}

func succeeded(paymentID string) *Notification {
	return &Notification{Event: types.PaymentEventSucceeded, PaymentID: paymentID, Status: types.PaymentStatusSucceeded}
}

func TestReconcile_FreshSubscription(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "100", 30)

	res, err := f.r.Reconcile(context.Background(), succeeded("p1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, "100", res.UserID)
	require.NotNil(t, res.EndDate)
	assert.Equal(t, refTime.AddDate(0, 0, 30), *res.EndDate)

	p, err := f.st.GetPayment(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, p.Processed)
	assert.Equal(t, types.PaymentStatusSucceeded, p.Status)
	require.NotNil(t, p.SucceededAt)
	assert.Equal(t, refTime, *p.SucceededAt)

	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, notifyCall{userID: "100", endDate: refTime.AddDate(0, 0, 30)}, f.notifier.calls[0])
}

func TestReconcile_ExtendsFromLaterOfExistingEndAndReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.st.PutSubscription(ctx, &models.Subscription{UserID: "100", EndDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}))
	f.seed(t, "p1", "100", 30)

	n := succeeded("p1")
	n.ReceivedAt = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	res, err := f.r.Reconcile(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), *res.EndDate)
}

func TestReconcile_ReplayedSuccessIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "100", 30)

	first, err := f.r.Reconcile(ctx, succeeded("p1"))
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, first.Outcome)
	payment, _ := f.st.GetPayment(ctx, "p1")
	sub, _ := f.st.GetSubscription(ctx, "100")

	for i := 0; i < 5; i++ {
		res, err := f.r.Reconcile(ctx, succeeded("p1"))
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, res.Outcome)
		assert.Nil(t, res.EndDate)
	}

	paymentAfter, _ := f.st.GetPayment(ctx, "p1")
	subAfter, _ := f.st.GetSubscription(ctx, "100")
	assert.Equal(t, payment, paymentAfter)
	assert.Equal(t, sub, subAfter)
	assert.Equal(t, 1, f.notifier.count())
}

func TestReconcile_UnknownPaymentWithMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.r.Reconcile(ctx, &Notification{
		Event:     types.PaymentEventWaitingForCapture,
		PaymentID: "p1",
		Status:    types.PaymentStatusWaitingForCapture,
		Metadata:  Metadata{"user_id": float64(100), "subscription_id": "month", "days": "30"},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeStatusUpdated, res.Outcome)
	assert.True(t, res.Synthesized)

	p, err := f.st.GetPayment(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "100", p.UserID)
	assert.Equal(t, "month", p.PlanID)
	assert.Equal(t, 30, p.Days)
	assert.Equal(t, types.PaymentOriginMetadata, p.Origin)
	assert.Equal(t, types.PaymentStatusWaitingForCapture, p.Status)
	assert.False(t, p.Processed)

	res, err = f.r.Reconcile(ctx, succeeded("p1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.False(t, res.Synthesized)
	assert.Equal(t, refTime.AddDate(0, 0, 30), *res.EndDate)
}

func TestReconcile_SucceededWithMetadataOnFirstSight(t *testing.T) {
	f := newFixture(t)

	n := succeeded("p1")
	n.Metadata = Metadata{"user_id": "100", "plan_id": "year", "days": 365}
	res, err := f.r.Reconcile(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.True(t, res.Synthesized)
	assert.Equal(t, refTime.AddDate(0, 0, 365), *res.EndDate)
}

func TestReconcile_UnknownPaymentWithoutMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, md := range []Metadata{nil, {"user_id": "100"}, {"user_id": "100", "plan_id": "month"}, {"user_id": " ", "plan_id": "month", "days": 30}} {
		n := succeeded("p1")
		n.Metadata = md
		res, err := f.r.Reconcile(ctx, n)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, res.Outcome)
	}

	_, err := f.st.GetPayment(ctx, "p1")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, f.notifier.count())
}

func TestReconcile_MalformedMetadata(t *testing.T) {
	f := newFixture(t)

	for _, md := range []Metadata{
		{"user_id": "100", "plan_id": "month", "days": "thirty"},
		{"user_id": "100", "plan_id": "month", "days": -1},
		{"user_id": map[string]any{"id": 1}, "plan_id": "month", "days": 30},
	} {
		n := succeeded("p1")
		n.Metadata = md
		_, err := f.r.Reconcile(context.Background(), n)
		require.ErrorIs(t, err, ErrInvalidInput)
	}
	_, err := f.st.GetPayment(context.Background(), "p1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReconcile_UnknownEventIsIgnoredWithoutStoreAccess(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "100", 30)
	f.st.getPaymentErr = errors.New("must not be called")
	readsBefore := f.st.paymentReads

	for _, event := range []types.PaymentEvent{"refund.succeeded", "payout.canceled", ""} {
		res, err := f.r.Reconcile(context.Background(), &Notification{Event: event, PaymentID: "p1", Status: types.PaymentStatusSucceeded})
		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, res.Outcome)
	}
	// an unknown event without a payment id is still ignored rather than rejected
	res, err := f.r.Reconcile(context.Background(), &Notification{Event: "deal.closed"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)

	assert.Equal(t, readsBefore, f.st.paymentReads)
	assert.Zero(t, f.notifier.count())
}

func TestReconcile_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.r.Reconcile(context.Background(), nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.r.Reconcile(context.Background(), succeeded(""))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.r.Reconcile(context.Background(), &Notification{Event: types.PaymentEventSucceeded, PaymentID: "p1", Status: "refunded"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestReconcile_ConcurrentDuplicatesExtendOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "100", 30)

	const workers = 20
	outcomes := make(chan Outcome, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.r.Reconcile(ctx, succeeded("p1"))
			if assert.NoError(t, err) {
				outcomes <- res.Outcome
			}
		}()
	}
	wg.Wait()
	close(outcomes)

	counts := map[Outcome]int{}
	for o := range outcomes {
		counts[o]++
	}
	assert.Equal(t, 1, counts[OutcomeSucceeded])
	assert.Equal(t, workers-1, counts[OutcomeDuplicate])

	sub, err := f.st.GetSubscription(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, refTime.AddDate(0, 0, 30), sub.EndDate)
	assert.Len(t, sub.AppliedPaymentIDs, 1)
	assert.Equal(t, 1, f.notifier.count())
}

func TestReconcile_ConcurrentPaymentsOfOneUserStack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := []string{"p1", "p2", "p3", "p4"}
	for _, id := range ids {
		f.seed(t, id, "100", 10)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.r.Reconcile(ctx, succeeded(id))
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	sub, err := f.st.GetSubscription(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, refTime.AddDate(0, 0, 40), sub.EndDate)
}

func TestReconcile_CanceledUpdatesStatusOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "100", 30)

	res, err := f.r.Reconcile(ctx, &Notification{Event: types.PaymentEventCanceled, PaymentID: "p1", Status: types.PaymentStatusCanceled})
	require.NoError(t, err)
	assert.Equal(t, OutcomeStatusUpdated, res.Outcome)
	assert.Equal(t, types.PaymentStatusCanceled, res.Status)
	assert.Nil(t, res.EndDate)

	p, err := f.st.GetPayment(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusCanceled, p.Status)
	assert.False(t, p.Processed)
	assert.Equal(t, string(types.PaymentEventCanceled), p.LastEvent)

	_, err = f.st.GetSubscription(ctx, "100")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, f.notifier.count())
}

func TestReconcile_InFlightStatusAfterSuccessIsStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "100", 30)
	_, err := f.r.Reconcile(ctx, succeeded("p1"))
	require.NoError(t, err)

	res, err := f.r.Reconcile(ctx, &Notification{Event: types.PaymentEventWaitingForCapture, PaymentID: "p1", Status: types.PaymentStatusWaitingForCapture})
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, res.Outcome)

	p, err := f.st.GetPayment(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusSucceeded, p.Status)

	// a final status still wins, and does not reopen the payment for a second extension
	res, err = f.r.Reconcile(ctx, &Notification{Event: types.PaymentEventCanceled, PaymentID: "p1", Status: types.PaymentStatusCanceled})
	require.NoError(t, err)
	assert.Equal(t, OutcomeStatusUpdated, res.Outcome)

	// the later success is a duplicate and the stored status stays canceled
	res, err = f.r.Reconcile(ctx, succeeded("p1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.Equal(t, types.PaymentStatusCanceled, res.Status)
	p, err = f.st.GetPayment(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusCanceled, p.Status)
	assert.Equal(t, 1, f.notifier.count())
}

func TestReconcile_RecoversFromCrashBetweenWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "100", 30)

	f.st.setPutSubErr(errors.New("connection reset"))
	_, err := f.r.Reconcile(ctx, succeeded("p1"))
	require.ErrorIs(t, err, ErrStorageFailure)

	p, err := f.st.GetPayment(ctx, "p1")
	require.NoError(t, err)
	require.True(t, p.Processed)
	_, err = f.st.GetSubscription(ctx, "100")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, f.notifier.count())

	// the retry happens a day later but extends from the original success time
	f.st.setPutSubErr(nil)
	f.r.now = func() time.Time { return refTime.AddDate(0, 0, 1) }
	res, err := f.r.Reconcile(ctx, succeeded("p1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.True(t, res.Recovered)
	assert.Equal(t, refTime.AddDate(0, 0, 30), *res.EndDate)
	assert.Equal(t, 1, f.notifier.count())

	res, err = f.r.Reconcile(ctx, succeeded("p1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
}

func TestReconcile_StorageFailureOnLoad(t *testing.T) {
	f := newFixture(t)
	f.st.getPaymentErr = errors.New("timeout")

	_, err := f.r.Reconcile(context.Background(), succeeded("p1"))
	require.ErrorIs(t, err, ErrStorageFailure)
	require.NotErrorIs(t, err, ErrInvalidInput)
}

type stuckLocker struct{}

func (stuckLocker) WithLock(ctx context.Context, key string, _ func(context.Context) error) error {
	return guard.ErrLockTimeout
}

func TestReconcile_GuardTimeoutIsStorageFailure(t *testing.T) {
	f := newFixture(t)
	f.r.locker = stuckLocker{}

	_, err := f.r.Reconcile(context.Background(), succeeded("p1"))
	require.ErrorIs(t, err, ErrStorageFailure)
	require.ErrorIs(t, err, guard.ErrLockTimeout)
}

type failingSender struct{}

func (failingSender) Send(context.Context, string, string) error { return errors.New("telegram is down") }

func TestReconcile_NotifierFailureDoesNotAffectResult(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig()
	n := notifier.New(cfg, failingSender{}, zap.NewNop().Sugar(), nil)
	f.r.notifier = n
	f.seed(t, "p1", "100", 30)

	res, err := f.r.Reconcile(context.Background(), succeeded("p1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	require.NoError(t, n.Wait(context.Background()))

	sub, err := f.st.GetSubscription(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, refTime.AddDate(0, 0, 30), sub.EndDate)
}

func TestReconcile_IgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "100", 30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.r.Reconcile(ctx, succeeded("p1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
}

func TestRegisterPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, created, err := f.r.RegisterPayment(ctx, &models.Payment{PaymentID: "p1", UserID: "100", PlanID: "month", Days: 30, Status: types.PaymentStatusSucceeded, Processed: true})
	require.NoError(t, err)
	assert.True(t, created)
	// caller supplied state is never trusted
	assert.Equal(t, types.PaymentStatusPending, p.Status)
	assert.False(t, p.Processed)
	assert.Equal(t, types.PaymentOriginSeeded, p.Origin)

	again, created, err := f.r.RegisterPayment(ctx, &models.Payment{PaymentID: "p1", UserID: "200", Days: 7})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "100", again.UserID)
	assert.Equal(t, 30, again.Days)

	_, _, err = f.r.RegisterPayment(ctx, &models.Payment{PaymentID: "p2", UserID: "100"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetPayment(t *testing.T) {
	f := newFixture(t)

	_, err := f.r.GetPayment(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRecordNotFound)

	f.seed(t, "p1", "100", 30)
	p, err := f.r.GetPayment(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "100", p.UserID)
}

func TestReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.r.Replay(ctx, "missing")
	require.ErrorIs(t, err, ErrRecordNotFound)

	f.seed(t, "p1", "100", 30)
	res, err := f.r.Replay(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)

	res, err = f.r.Replay(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "invalid_input", outcomeLabel(nil, invalidInput("x")))
	assert.Equal(t, "storage_failure", outcomeLabel(nil, storageFailure("op", errors.New("x"))))
	assert.Equal(t, "error", outcomeLabel(nil, errors.New("x")))
	assert.Equal(t, "duplicate", outcomeLabel(&Result{Outcome: OutcomeDuplicate}, nil))
}

func TestReconcile_UnhandledEventsShareMetricLabel(t *testing.T) {
	cfg := testConfig()
	st := store.NewMemory()
	locker := guard.NewLocal(5 * time.Second)
	log := zap.NewNop().Sugar()
	reg := prometheus.NewRegistry()
	r := New(cfg, st, locker, subscription.NewService(cfg, st, locker, log), &recordingNotifier{}, metrics.NewReconcileMetrics(reg, nil), log)

	for i := 0; i < 100; i++ {
		res, err := r.Reconcile(context.Background(), &Notification{Event: types.PaymentEvent(fmt.Sprintf("x.%d", i)), PaymentID: "p1"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, res.Outcome)
	}
	count, err := testutil.GatherAndCount(reg, "payrecon_reconcile_outcome_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, _ = r.Reconcile(context.Background(), &Notification{Event: types.PaymentEventSucceeded, PaymentID: "p1", Status: types.PaymentStatusSucceeded})
	count, err = testutil.GatherAndCount(reg, "payrecon_reconcile_outcome_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
