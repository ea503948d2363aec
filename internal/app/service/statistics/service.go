package statistics

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/store"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/types"
)

type StatisticType string

const (
	// Payments by creation day, labelled with their current status
	StatisticTypeDailyPaymentCount StatisticType = "daily_payment_count"
	// Payments applied to a subscription, by success day
	StatisticTypeDailySucceededCount StatisticType = "daily_succeeded_count"
	// Subscription days sold, by success day, labelled with plan
	StatisticTypeDailyPurchasedDays StatisticType = "daily_purchased_days"

	// Subscription related; payment filters do not apply
	StatisticTypeDailyNewSubscriptionCount StatisticType = "daily_new_subscription_count"
	StatisticTypeTotalActiveSubscriptions  StatisticType = "total_active_subscriptions"
)

var paymentStatisticTypes = []StatisticType{
	StatisticTypeDailyPaymentCount,
	StatisticTypeDailySucceededCount,
	StatisticTypeDailyPurchasedDays,
}

var allStatisticTypes = append([]StatisticType{
	StatisticTypeDailyNewSubscriptionCount,
	StatisticTypeTotalActiveSubscriptions,
}, paymentStatisticTypes...)

type StatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type StatisticRequest struct {
	// Filters restrict payment statistics; they are validated against payment columns.
	Filters   types.CommonFilters  `json:"filters"`
	DataItems []*StatisticDataItem `json:"data_items"`
}

func (r *StatisticRequest) Validate() error {
	if r == nil || len(r.DataItems) == 0 {
		return fmt.Errorf("no data items requested")
	}
	for _, f := range r.Filters {
		if err := f.Validate(store.PaymentFilterFields); err != nil {
			return err
		}
	}
	for _, di := range r.DataItems {
		if di == nil || !lo.Contains(allStatisticTypes, di.ID) {
			return fmt.Errorf("invalid data item id: %v", di)
		}
	}
	return nil
}

type StatisticResponseDataItem struct {
	Date  string `json:"date,omitempty"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type StatisticResponse struct {
	DataItems map[StatisticType][]StatisticResponseDataItem `json:"data_items"`
}

// Service computes reporting aggregates directly in SQL.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Service { return &Service{db: db, now: time.Now} }

// day renders a timestamp column as YYYY-MM-DD in the connected dialect.
func (s *Service) day(column string) string {
	if s.db.Dialector.Name() == "mysql" {
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-%%d')", column)
	}
	return fmt.Sprintf("TO_CHAR(%s, 'YYYY-MM-DD')", column)
}

func (s *Service) paymentQuery(ctx context.Context, request *StatisticRequest) *gorm.DB {
	return s.db.WithContext(ctx).Table((models.Payment{}).TableName()).
		Where(clause.Where{Exprs: []clause.Expression{request.Filters}})
}

func (s *Service) getDailyPaymentCount(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	day := s.day("created_at")
	q := s.paymentQuery(ctx, request).
		Select(day + " as date, status as label, count(*) as value").
		Group(day).
		Group("status").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailySucceededCount(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	day := s.day("succeeded_at")
	q := s.paymentQuery(ctx, request).
		Select(day+" as date, count(*) as value").
		Where("processed = ?", true).
		Group(day).
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyPurchasedDays(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	day := s.day("succeeded_at")
	q := s.paymentQuery(ctx, request).
		Select(day+" as date, plan_id as label, sum(days) as value").
		Where("processed = ?", true).
		Group(day).
		Group("plan_id").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyNewSubscriptionCount(ctx context.Context, _ *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	day := s.day("created_at")
	q := s.db.WithContext(ctx).Table((models.Subscription{}).TableName()).
		Select(day + " as date, count(*) as value").
		Group(day).
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalActiveSubscriptions(ctx context.Context, _ *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Subscription{}).TableName()).
		Select("count(*) as value").
		Where("end_date > ?", s.now().UTC())
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getStatistic(ctx context.Context, request *StatisticRequest, dataItem *StatisticDataItem) ([]StatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyPaymentCount:
		return s.getDailyPaymentCount(ctx, request)
	case StatisticTypeDailySucceededCount:
		return s.getDailySucceededCount(ctx, request)
	case StatisticTypeDailyPurchasedDays:
		return s.getDailyPurchasedDays(ctx, request)
	case StatisticTypeDailyNewSubscriptionCount:
		return s.getDailyNewSubscriptionCount(ctx, request)
	case StatisticTypeTotalActiveSubscriptions:
		return s.getTotalActiveSubscriptions(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

type statisticResult struct {
	key   StatisticType
	value []StatisticResponseDataItem
	err   error
}

// GetStatistic runs every requested aggregate concurrently. The request must
// have passed Validate.
func (s *Service) GetStatistic(ctx context.Context, request *StatisticRequest) (*StatisticResponse, error) {
	// buffered so workers never block once the first error returns early
	resChan := make(chan statisticResult, len(request.DataItems))
	for _, item := range request.DataItems {
		go func(di *StatisticDataItem) {
			res, err := s.getStatistic(ctx, request, di)
			if err != nil {
				err = fmt.Errorf("%s: %w", di.ID, err)
			}
			resChan <- statisticResult{key: di.ID, value: res, err: err}
		}(item)
	}

	results := make(map[StatisticType][]StatisticResponseDataItem, len(request.DataItems))
	for range request.DataItems {
		r := <-resChan
		if r.err != nil {
			return nil, r.err
		}
		results[r.key] = r.value
	}
	return &StatisticResponse{DataItems: results}, nil
}

// Module provides the service for SQL store drivers only.
func Module(cfg *config.Config) fx.Option {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres, config.StoreDriverMySQL:
		return fx.Provide(New)
	default:
		return fx.Options()
	}
}
