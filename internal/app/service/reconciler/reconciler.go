package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/app/service/guard"
	"github.com/fatflowers/payrecon/internal/app/service/subscription"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/store"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/metrics"
	"github.com/fatflowers/payrecon/pkg/tool"
	"github.com/fatflowers/payrecon/pkg/types"
)

// Ledger applies a successful payment to the user's subscription.
type Ledger interface {
	Extend(ctx context.Context, userID, paymentID string, days int, ref time.Time) (*subscription.ExtendResult, error)
	Applied(ctx context.Context, userID, paymentID string) (bool, error)
}

// ConfirmationNotifier tells a user their subscription was extended. It
// must not block.
type ConfirmationNotifier interface {
	Notify(ctx context.Context, userID string, endDate time.Time)
}

type Reconciler struct {
	store        store.PaymentStore
	locker       guard.Locker
	ledger       Ledger
	notifier     ConfirmationNotifier
	metrics      *metrics.ReconcileMetrics
	log          *zap.SugaredLogger
	storeTimeout time.Duration
	now          func() time.Time
}

func New(cfg *config.Config, st store.Store, locker guard.Locker, ledger Ledger, notifier ConfirmationNotifier,
	m *metrics.ReconcileMetrics, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		store:        st,
		locker:       locker,
		ledger:       ledger,
		notifier:     notifier,
		metrics:      m,
		log:          log,
		storeTimeout: cfg.Store.Timeout,
		now:          time.Now,
	}
}

// Reconcile applies one notification. Deliveries of the same payment are
// serialized and a success is applied to the subscription exactly once.
// The caller's cancellation is ignored; every store call is bounded by
// store.timeout instead.
func (r *Reconciler) Reconcile(ctx context.Context, n *Notification) (res *Result, err error) {
	start := time.Now()
	// unhandled events share one label so senders cannot grow the series set
	event := "other"
	if n != nil && n.Event.Handled() {
		event = string(n.Event)
	}
	defer func() {
		r.metrics.ObserveReconcile(event, outcomeLabel(res, err), start)
	}()

	if n == nil {
		return nil, invalidInput("nil notification")
	}
	ctx = logctx.WithPaymentID(context.WithoutCancel(ctx), n.PaymentID)
	lg := logctx.FromCtx(ctx, r.log)

	if !n.Event.Handled() {
		lg.Infow("notification event not handled", "event", n.Event)
		return &Result{Outcome: OutcomeIgnored, PaymentID: n.PaymentID}, nil
	}
	if n.PaymentID == "" {
		return nil, invalidInput("missing payment id")
	}
	if !n.Status.Valid() {
		return nil, invalidInput("unknown payment status %q", n.Status)
	}

	waitStart := time.Now()
	err = r.locker.WithLock(ctx, guard.PaymentKey(n.PaymentID), func(ctx context.Context) error {
		r.metrics.ObserveGuardWait(waitStart)
		var lockedErr error
		res, lockedErr = r.reconcileLocked(ctx, n)
		return lockedErr
	})
	if err != nil {
		if errors.Is(err, guard.ErrLockTimeout) {
			err = storageFailure("acquire payment guard", err)
		}
		if errors.Is(err, ErrInvalidInput) {
			lg.Warnw("notification rejected", "event", n.Event, "status", n.Status, "err", err)
		} else {
			lg.Errorw("reconcile failed", "event", n.Event, "status", n.Status, "err", err)
		}
		return nil, err
	}

	lg.Infow("reconciled", "event", n.Event, "status", n.Status, "outcome", res.Outcome, "recovered", res.Recovered)
	if res.Outcome == OutcomeSucceeded && res.EndDate != nil {
		r.notifier.Notify(ctx, res.UserID, *res.EndDate)
	}
	return res, nil
}

func (r *Reconciler) reconcileLocked(ctx context.Context, n *Notification) (*Result, error) {
	lg := logctx.FromCtx(ctx, r.log)

	p, err := r.getPayment(ctx, n.PaymentID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, storageFailure("load payment", err)
	}

	synthesized := false
	if p == nil {
		s, err := n.Metadata.seed()
		if errors.Is(err, errIncompleteMetadata) {
			lg.Warnw("unknown payment without usable metadata", "event", n.Event)
			return &Result{Outcome: OutcomeNotFound, PaymentID: n.PaymentID}, nil
		}
		if err != nil {
			return nil, err
		}
		p = &models.Payment{
			PaymentID: n.PaymentID,
			UserID:    s.userID,
			PlanID:    s.planID,
			Days:      s.days,
			Status:    types.PaymentStatusPending,
			Origin:    types.PaymentOriginMetadata,
			LastEvent: string(n.Event),
		}
		if err := r.putPayment(ctx, p); err != nil {
			return nil, storageFailure("create payment from metadata", err)
		}
		synthesized = true
		lg.Infow("created payment from notification metadata", "user_id", p.UserID, "plan_id", p.PlanID, "days", p.Days)
	}

	res := &Result{PaymentID: p.PaymentID, UserID: p.UserID, Synthesized: synthesized}

	if n.Status != types.PaymentStatusSucceeded {
		// YooKassa never moves a payment out of succeeded into an in-flight state
		if p.Processed && !n.Status.Final() {
			res.Outcome, res.Status = OutcomeStale, p.Status
			return res, nil
		}
		p.Status = n.Status
		p.LastEvent = string(n.Event)
		if err := r.putPayment(ctx, p); err != nil {
			return nil, storageFailure("update payment status", err)
		}
		res.Outcome, res.Status = OutcomeStatusUpdated, p.Status
		return res, nil
	}

	if p.Processed {
		return r.reconcileProcessed(ctx, p, res)
	}

	ref := n.ReceivedAt
	if ref.IsZero() {
		ref = r.now()
	}
	ref = ref.UTC()
	p.Status = types.PaymentStatusSucceeded
	p.Processed = true
	p.SucceededAt = &ref
	p.LastEvent = string(n.Event)
	if err := r.putPayment(ctx, p); err != nil {
		return nil, storageFailure("mark payment processed", err)
	}

	ext, err := r.extend(ctx, p, ref)
	if err != nil {
		return nil, err
	}
	res.Outcome, res.Status, res.EndDate = OutcomeSucceeded, p.Status, &ext.EndDate
	return res, nil
}

// reconcileProcessed handles a success for a payment already marked
// processed. Normally that is a duplicate; if the subscription does not list
// the payment, an earlier run stopped between the two writes and the
// extension is applied now.
func (r *Reconciler) reconcileProcessed(ctx context.Context, p *models.Payment, res *Result) (*Result, error) {
	applied, err := r.ledger.Applied(ctx, p.UserID, p.PaymentID)
	if err != nil {
		return nil, storageFailure("load subscription", err)
	}
	res.Status = p.Status
	if applied {
		res.Outcome = OutcomeDuplicate
		return res, nil
	}

	ref := r.now().UTC()
	if p.SucceededAt != nil {
		ref = *p.SucceededAt
	}
	logctx.FromCtx(ctx, r.log).Warnw("payment processed but missing from subscription, applying now", "succeeded_at", ref)
	ext, err := r.extend(ctx, p, ref)
	if err != nil {
		return nil, err
	}
	res.Outcome, res.EndDate, res.Recovered = OutcomeSucceeded, &ext.EndDate, true
	return res, nil
}

func (r *Reconciler) extend(ctx context.Context, p *models.Payment, ref time.Time) (*subscription.ExtendResult, error) {
	ext, err := r.ledger.Extend(ctx, p.UserID, p.PaymentID, p.Days, ref)
	if err != nil {
		if errors.Is(err, subscription.ErrInvalidExtension) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return nil, storageFailure("extend subscription", err)
	}
	return ext, nil
}

// RegisterPayment records a payment before it reaches the processor, so
// later notifications need no metadata. An existing record is returned
// unchanged with created=false.
func (r *Reconciler) RegisterPayment(ctx context.Context, p *models.Payment) (stored *models.Payment, created bool, err error) {
	if p == nil || p.PaymentID == "" || p.UserID == "" || p.Days <= 0 {
		return nil, false, invalidInput("payment id, user id and positive days are required")
	}
	ctx = logctx.WithPaymentID(context.WithoutCancel(ctx), p.PaymentID)

	err = r.locker.WithLock(ctx, guard.PaymentKey(p.PaymentID), func(ctx context.Context) error {
		existing, err := r.getPayment(ctx, p.PaymentID)
		if err == nil {
			stored = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return storageFailure("load payment", err)
		}

		fresh := &models.Payment{
			PaymentID: p.PaymentID,
			UserID:    p.UserID,
			PlanID:    p.PlanID,
			Days:      p.Days,
			Status:    types.PaymentStatusPending,
			Origin:    types.PaymentOriginSeeded,
		}
		if err := r.putPayment(ctx, fresh); err != nil {
			return storageFailure("register payment", err)
		}
		stored, created = fresh, true
		return nil
	})
	if err != nil {
		if errors.Is(err, guard.ErrLockTimeout) {
			err = storageFailure("acquire payment guard", err)
		}
		return nil, false, err
	}
	if created {
		logctx.FromCtx(ctx, r.log).Infow("payment registered", "user_id", stored.UserID, "plan_id", stored.PlanID, "days", stored.Days)
	}
	return stored, created, nil
}

// GetPayment returns the stored state of a payment without locking.
func (r *Reconciler) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	p, err := r.getPayment(ctx, paymentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, paymentID)
	}
	if err != nil {
		return nil, storageFailure("load payment", err)
	}
	return p, nil
}

// Replay reconciles a synthetic success for a stored payment. Replaying an
// applied payment is a duplicate; one that never reached the subscription
// is applied.
func (r *Reconciler) Replay(ctx context.Context, paymentID string) (*Result, error) {
	if _, err := r.GetPayment(ctx, paymentID); err != nil {
		return nil, err
	}
	return r.Reconcile(ctx, &Notification{
		Event:     types.PaymentEventSucceeded,
		PaymentID: paymentID,
		Status:    types.PaymentStatusSucceeded,
	})
}

func (r *Reconciler) getPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	ctx, cancel := tool.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	return r.store.GetPayment(ctx, paymentID)
}

func (r *Reconciler) putPayment(ctx context.Context, p *models.Payment) error {
	ctx, cancel := tool.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	return r.store.PutPayment(ctx, p)
}

func outcomeLabel(res *Result, err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrStorageFailure):
		return "storage_failure"
	case err != nil:
		return "error"
	case res == nil:
		return "unknown"
	default:
		return string(res.Outcome)
	}
}
