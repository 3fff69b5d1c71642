package sales

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lockCartQuery    = `ce\.sale_id IS NULL\s+ORDER BY p\.id\s+FOR UPDATE`
	insertSaleQuery  = regexp.QuoteMeta(`INSERT INTO sales (user_id, description) VALUES ($1, $2) RETURNING id, created_at`)
	insertDetailStmt = regexp.QuoteMeta(`INSERT INTO sale_details (sale_id, product_id, cart_entry_id, quantity, value)`)
	decrementStmt    = regexp.QuoteMeta(`UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`)
	linkEntryStmt    = regexp.QuoteMeta(`UPDATE cart_entries SET sale_id = $1 WHERE id = $2`)

	lineColumns = []string{"id", "product_id", "quantity", "name", "price", "stock"}
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCheckoutWritesSaleAtomically(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(lockCartQuery).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(lineColumns).
			AddRow(11, 7, 3, "Lamp", "10.00", 5).
			AddRow(12, 9, 1, "Mug", "4.25", 1))
	mock.ExpectQuery(insertSaleQuery).
		WithArgs(int64(1), "Online purchase").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(100, now))

	mock.ExpectQuery(insertDetailStmt).
		WithArgs(int64(100), int64(7), int64(11), 3, decimal.NewFromInt(30)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(500, now))
	mock.ExpectExec(decrementStmt).WithArgs(3, int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(linkEntryStmt).WithArgs(int64(100), int64(11)).WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(insertDetailStmt).
		WithArgs(int64(100), int64(9), int64(12), 1, decimal.RequireFromString("4.25")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(501, now))
	mock.ExpectExec(decrementStmt).WithArgs(1, int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(linkEntryStmt).WithArgs(int64(100), int64(12)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sale, err := repo.Checkout(context.Background(), 1, DefaultDescription)
	require.NoError(t, err)

	assert.Equal(t, int64(100), sale.ID)
	require.Len(t, sale.Details, 2)
	assert.Equal(t, 3, sale.Details[0].Quantity)
	assert.True(t, decimal.NewFromInt(30).Equal(sale.Details[0].Value))
	assert.Equal(t, 2, sale.Details[0].Product.Stock)
	assert.True(t, decimal.RequireFromString("34.25").Equal(sale.Total))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRollsBackOnDetailFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCartQuery).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(lineColumns).AddRow(11, 7, 3, "Lamp", "10.00", 5))
	mock.ExpectQuery(insertSaleQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(100, time.Now()))
	mock.ExpectQuery(insertDetailStmt).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	sale, err := repo.Checkout(context.Background(), 1, DefaultDescription)
	assert.Nil(t, sale)
	assert.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutLosesConditionalDecrement(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCartQuery).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(lineColumns).AddRow(21, 7, 1, "Lamp", "10.00", 1))
	mock.ExpectQuery(insertSaleQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(101, time.Now()))
	mock.ExpectQuery(insertDetailStmt).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(502, time.Now()))
	// A concurrent checkout took the last unit first.
	mock.ExpectExec(decrementStmt).WithArgs(1, int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Checkout(context.Background(), 2, DefaultDescription)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Lamp")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRejectsShortStockBeforeWriting(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCartQuery).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(lineColumns).
			AddRow(11, 7, 1, "Lamp", "10.00", 5).
			AddRow(12, 9, 4, "Mug", "4.25", 3))
	mock.ExpectRollback()

	_, err := repo.Checkout(context.Background(), 1, DefaultDescription)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Mug")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutEmptyCart(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCartQuery).WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows(lineColumns))
	mock.ExpectRollback()

	_, err := repo.Checkout(context.Background(), 1, DefaultDescription)
	assert.ErrorIs(t, err, ErrEmptyCart)
	require.NoError(t, mock.ExpectationsWereMet())
}

var entryColumns = []string{"id", "user_id", "product_id", "quantity", "added_at", "name", "price", "stock"}

func TestAddToCartMergesLiveEntry(t *testing.T) {
	repo, mock := newMockRepo(t)
	upsert := regexp.QuoteMeta(`ON CONFLICT (user_id, product_id) WHERE sale_id IS NULL`)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, stock FROM products WHERE id = $1 FOR SHARE`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock"}).AddRow("Lamp", 5))
	mock.ExpectQuery(upsert).
		WithArgs(int64(1), int64(7), 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).AddRow(11, 4))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE ce.id = $1 AND ce.user_id = $2`)).
		WithArgs(int64(11), int64(1)).
		WillReturnRows(sqlmock.NewRows(entryColumns).AddRow(11, 1, 7, 4, time.Now(), "Lamp", "10.00", 5))

	entry, err := repo.AddToCart(context.Background(), 1, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, entry.Quantity)
	assert.True(t, decimal.NewFromInt(40).Equal(entry.Subtotal))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToCartMergedQuantityOverStockRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR SHARE`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock"}).AddRow("Lamp", 5))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO cart_entries`)).
		WithArgs(int64(1), int64(7), 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).AddRow(11, 6))
	mock.ExpectRollback()

	_, err := repo.AddToCart(context.Background(), 1, 7, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToCartUnknownProduct(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR SHARE`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock"}))
	mock.ExpectRollback()

	_, err := repo.AddToCart(context.Background(), 1, 99, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveCartEntryScopedToOwner(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cart_entries WHERE id = $1 AND user_id = $2 AND sale_id IS NULL`)).
		WithArgs(int64(11), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RemoveCartEntry(context.Background(), 2, 11)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSaleComputesTotal(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE s.id = $1`)).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "description", "created_at"}).
			AddRow(100, 1, "Ana", "Online purchase", now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM sale_details d`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "sale_id", "product_id", "cart_entry_id", "quantity", "value", "created_at", "name", "price", "stock",
		}).
			AddRow(500, 100, 7, 11, 3, "30.00", now, "Lamp", "10.00", 2).
			AddRow(501, 100, 9, nil, 1, "4.25", now, "Mug", "4.25", 0))

	sale, err := repo.GetSale(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, "Ana", sale.UserName)
	require.Len(t, sale.Details, 2)
	assert.Nil(t, sale.Details[1].CartEntryID)
	assert.True(t, decimal.RequireFromString("34.25").Equal(sale.Total))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsAveragesRevenue(t *testing.T) {
	repo, mock := newMockRepo(t)
	since := time.Now().Add(-recentWindow)

	mock.ExpectQuery(regexp.QuoteMeta(`FILTER (WHERE created_at >= $1)`)).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count", "recent"}).AddRow(3, 2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(value), 0) FROM sale_details`)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("100.00"))

	st, err := repo.Stats(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalSales)
	assert.Equal(t, 2, st.RecentSales)
	assert.Equal(t, "33.33", st.AverageSale.StringFixed(2))
	require.NoError(t, mock.ExpectationsWereMet())
}
