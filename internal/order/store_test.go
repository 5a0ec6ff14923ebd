package order

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var orderCols = []string{
	"id", "user_id", "status", "subtotal", "discount_total", "total",
	"discount_breakdown", "created_at", "updated_at",
}

func TestPostgresStoreCreateFillsID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	o := &Order{
		Status:            StatusPending,
		Subtotal:          decimal.NewFromInt(600),
		DiscountTotal:     decimal.NewFromInt(120),
		Total:             decimal.NewFromInt(480),
		DiscountBreakdown: []byte(`{"1":{"title":"Flat","total_old_price":"600","total_new_price":"480"}}`),
	}
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(pgxmock.AnyArg(), "pending", "600", "120", "480", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(12), now, now))

	require.NoError(t, (&PostgresStore{DB: mock}).Create(context.Background(), o))
	require.Equal(t, int64(12), o.ID)
	require.Equal(t, now, o.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetParsesMoney(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	user := "u-1"
	mock.ExpectQuery("SELECT id, user_id, status").
		WithArgs(int64(4)).
		WillReturnRows(pgxmock.NewRows(orderCols).AddRow(
			int64(4), &user, "processing", "100.0000", "20.0000", "80.0000", []byte(`{}`), now, now,
		))

	o, err := (&PostgresStore{DB: mock}).Get(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, o.Status)
	require.Equal(t, "u-1", *o.UserID)
	require.True(t, o.Total.Equal(decimal.NewFromInt(80)))
	require.JSONEq(t, `{}`, string(o.DiscountBreakdown))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, user_id, status").
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(orderCols))

	_, err = (&PostgresStore{DB: mock}).Get(context.Background(), 9)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreUpdateStatusReturnsPrevious(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("WITH prev AS").
		WithArgs(int64(4), "completed").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("processing"))

	prev, err := (&PostgresStore{DB: mock}).UpdateStatus(context.Background(), 4, StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, prev)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus(" On-Hold ")
	require.True(t, ok)
	require.Equal(t, StatusOnHold, st)

	_, ok = ParseStatus("shipped")
	require.False(t, ok)
}
