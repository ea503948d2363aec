package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/app/service/guard"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/store"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/tool"
	"github.com/fatflowers/payrecon/pkg/types"
)

var ErrInvalidExtension = errors.New("invalid subscription extension")

type Service struct {
	store        store.SubscriptionStore
	locker       guard.Locker
	log          *zap.SugaredLogger
	storeTimeout time.Duration
	now          func() time.Time
}

func NewService(cfg *config.Config, st store.Store, locker guard.Locker, log *zap.SugaredLogger) *Service {
	return &Service{
		store:        st,
		locker:       locker,
		log:          log,
		storeTimeout: cfg.Store.Timeout,
		now:          time.Now,
	}
}

type ExtendResult struct {
	EndDate time.Time
	// PreviousEnd is nil for a user's first subscription.
	PreviousEnd *time.Time
	// Applied is false when paymentID had already been applied; EndDate is then unchanged.
	Applied bool
}

// Extend adds days to the user's subscription on behalf of paymentID. It is
// serialized per user and idempotent per payment: the payment id is recorded
// in the same write that moves the end date.
func (s *Service) Extend(ctx context.Context, userID, paymentID string, days int, ref time.Time) (*ExtendResult, error) {
	if userID == "" || paymentID == "" || days <= 0 {
		return nil, fmt.Errorf("%w: user=%q payment=%q days=%d", ErrInvalidExtension, userID, paymentID, days)
	}
	ctx = logctx.WithUserID(ctx, userID)

	var res *ExtendResult
	err := s.locker.WithLock(ctx, guard.UserKey(userID), func(ctx context.Context) error {
		sub, err := s.get(ctx, userID)
		if err != nil {
			return err
		}

		var prev *time.Time
		if sub != nil {
			end := sub.EndDate
			prev = &end
			if sub.HasApplied(paymentID) {
				res = &ExtendResult{EndDate: sub.EndDate, PreviousEnd: prev}
				return nil
			}
		} else {
			sub = &models.Subscription{UserID: userID}
		}

		sub.EndDate = NextEndDate(prev, days, ref)
		sub.AppliedPaymentIDs = append(sub.AppliedPaymentIDs, paymentID)

		putCtx, cancel := tool.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
		if err := s.store.PutSubscription(putCtx, sub); err != nil {
			return fmt.Errorf("failed to save subscription: %w", err)
		}
		res = &ExtendResult{EndDate: sub.EndDate, PreviousEnd: prev, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	lg := logctx.FromCtx(ctx, s.log)
	if res.Applied {
		lg.Infow("subscription extended", "payment_id", paymentID, "days", days, "previous_end", res.PreviousEnd, "end_date", res.EndDate)
	} else {
		lg.Infow("subscription already includes payment", "payment_id", paymentID, "end_date", res.EndDate)
	}
	return res, nil
}

// Applied reports whether paymentID is already reflected in the user's end date.
func (s *Service) Applied(ctx context.Context, userID, paymentID string) (bool, error) {
	sub, err := s.get(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub.HasApplied(paymentID), nil
}

// GetSubscription returns the user's subscription, or store.ErrNotFound.
func (s *Service) GetSubscription(ctx context.Context, userID string) (*types.UserSubscriptionInfo, error) {
	sub, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, store.ErrNotFound
	}
	status := types.SubscriptionStatusInactive
	if sub.Active(s.now()) {
		status = types.SubscriptionStatusActive
	}
	return &types.UserSubscriptionInfo{
		UserID:            sub.UserID,
		Status:            status,
		EndDate:           sub.EndDate,
		AppliedPaymentIDs: sub.AppliedPaymentIDs,
		UpdatedAt:         sub.UpdatedAt,
	}, nil
}

// get returns nil without error when the user has no subscription yet.
func (s *Service) get(ctx context.Context, userID string) (*models.Subscription, error) {
	ctx, cancel := tool.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	sub, err := s.store.GetSubscription(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return sub, nil
}
