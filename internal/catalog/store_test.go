package catalog

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStoreGetProductByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"id", "parent_id", "name", "product_type", "price", "regular_price", "variations", "tags", "categories"}
	mock.ExpectQuery("SELECT p.id").
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			int64(10), int64(0), "Hoodie", "variable", "100.0000", "120.0000",
			[]int64{11, 12}, []int64{3}, []int64{7},
		))

	store := NewPostgresStore(mock)
	p, err := store.GetProductByID(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, p.IsVariable())
	assert.True(t, p.IsOnSale())
	assert.Equal(t, []int64{11, 12}, p.VariationIDs)
	assert.Equal(t, "100", p.Price.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetProductByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT p.id").WithArgs(int64(99)).WillReturnError(pgx.ErrNoRows)

	_, err = NewPostgresStore(mock).GetProductByID(context.Background(), 99)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestPostgresStoreQueryProductIDsByCategory(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT DISTINCT product_id").
		WithArgs([]int64{4, 5}).
		WillReturnRows(pgxmock.NewRows([]string{"product_id"}).AddRow(int64(1)).AddRow(int64(2)))

	ids, err := NewPostgresStore(mock).QueryProductIDsByCategory(context.Background(), []int64{4, 5})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreQueryProductIDsByCategorySkipsEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ids, err := NewPostgresStore(mock).QueryProductIDsByCategory(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
