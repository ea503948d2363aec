package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fatflowers/payrecon/pkg/types"
)

func setupService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	// data items run concurrently
	mock.MatchExpectationsInOrder(false)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	s := New(gdb)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestStatisticRequest_Validate(t *testing.T) {
	require.Error(t, (&StatisticRequest{}).Validate())
	require.Error(t, (&StatisticRequest{DataItems: []*StatisticDataItem{{ID: "daily_gmv"}}}).Validate())
	require.Error(t, (&StatisticRequest{
		Filters:   types.CommonFilters{{Field: "secret", Operator: types.CommonFilterOperatorEq, Values: []any{1}}},
		DataItems: []*StatisticDataItem{{ID: StatisticTypeDailyPaymentCount}},
	}).Validate())
	require.NoError(t, (&StatisticRequest{
		Filters:   types.CommonFilters{{Field: "plan_id", Operator: types.CommonFilterOperatorEq, Values: []any{"month"}}},
		DataItems: []*StatisticDataItem{{ID: StatisticTypeDailyPaymentCount}, {ID: StatisticTypeTotalActiveSubscriptions}},
	}).Validate())
}

func TestGetStatistic(t *testing.T) {
	s, mock := setupService(t)

	mock.ExpectQuery(`SELECT TO_CHAR\(created_at, 'YYYY-MM-DD'\) as date, status as label, count\(\*\) as value FROM "payment" WHERE .*plan_id.* = \$1 GROUP BY`).
		WithArgs("month").
		WillReturnRows(sqlmock.NewRows([]string{"date", "label", "value"}).
			AddRow("2024-04-30", "succeeded", 3).
			AddRow("2024-04-30", "canceled", 1))
	mock.ExpectQuery(`SELECT count\(\*\) as value FROM "subscription" WHERE end_date > \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(7))

	res, err := s.GetStatistic(context.Background(), &StatisticRequest{
		Filters:   types.CommonFilters{{Field: "plan_id", Operator: types.CommonFilterOperatorEq, Values: []any{"month"}}},
		DataItems: []*StatisticDataItem{{ID: StatisticTypeDailyPaymentCount}, {ID: StatisticTypeTotalActiveSubscriptions}},
	})
	require.NoError(t, err)
	require.Len(t, res.DataItems[StatisticTypeDailyPaymentCount], 2)
	assert.Equal(t, "succeeded", res.DataItems[StatisticTypeDailyPaymentCount][0].Label)
	assert.Equal(t, int64(3), res.DataItems[StatisticTypeDailyPaymentCount][0].Value)
	assert.Equal(t, []StatisticResponseDataItem{{Value: 7}}, res.DataItems[StatisticTypeTotalActiveSubscriptions])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStatistic_QueryError(t *testing.T) {
	s, mock := setupService(t)
	mock.ExpectQuery(`FROM "payment"`).WillReturnError(assert.AnError)

	_, err := s.GetStatistic(context.Background(), &StatisticRequest{
		DataItems: []*StatisticDataItem{{ID: StatisticTypeDailySucceededCount}},
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), string(StatisticTypeDailySucceededCount))
}

func TestGetStatistic_ReturnsEveryItem(t *testing.T) {
	items := []*StatisticDataItem{
		{ID: StatisticTypeDailyPaymentCount},
		{ID: StatisticTypeDailyNewSubscriptionCount},
		{ID: StatisticTypeTotalActiveSubscriptions},
	}
	for i := 0; i < 200; i++ {
		s, mock := setupService(t)
		mock.ExpectQuery(`FROM "payment"`).
			WillReturnRows(sqlmock.NewRows([]string{"date", "label", "value"}).AddRow("2024-04-30", "succeeded", 1))
		mock.ExpectQuery(`FROM "subscription" GROUP BY`).
			WillReturnRows(sqlmock.NewRows([]string{"date", "value"}).AddRow("2024-04-30", 2))
		mock.ExpectQuery(`FROM "subscription" WHERE end_date`).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(3))

		res, err := s.GetStatistic(context.Background(), &StatisticRequest{DataItems: items})
		require.NoError(t, err)
		require.Len(t, res.DataItems, len(items), "run %d", i)
		for _, di := range items {
			assert.Contains(t, res.DataItems, di.ID, "run %d", i)
		}
	}
}
