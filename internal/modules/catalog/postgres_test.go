package catalog

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProductLoadsRelations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectProduct + ` WHERE p.id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock"}).AddRow(7, "Lamp", "10.00", 5))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM product_categories pc`)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "id", "name"}).AddRow(7, 1, "Home"))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM product_images`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "category_id", "path", "alt_text", "is_main"}).
			AddRow(3, 7, nil, "/img/lamp.png", nil, true))

	p, err := repo.GetProduct(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "Lamp", p.Name)
	assert.True(t, decimal.NewFromInt(10).Equal(p.Price))
	assert.Equal(t, 5, p.Stock)
	require.Len(t, p.Categories, 1)
	assert.Equal(t, "Home", p.Categories[0].Name)
	require.Len(t, p.Images, 1)
	assert.True(t, p.Images[0].IsMain)
	assert.Nil(t, p.Images[0].CategoryID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.id = $1`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock"}))

	_, err = NewPostgresRepository(db).GetProduct(context.Background(), 9)
	assert.ErrorIs(t, err, ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsBuildsFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	minPrice := decimal.NewFromInt(5)
	f := ProductFilter{Search: "lamp", CategoryID: 2, MinPrice: &minPrice, InStock: true, Page: 2, PerPage: 5}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products p WHERE p.name ILIKE $1 AND EXISTS`)).
		WithArgs("%lamp%", int64(2), minPrice).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectQuery(regexp.QuoteMeta(`p.price >= $3 AND p.stock > 0 ORDER BY p.id LIMIT $4 OFFSET $5`)).
		WithArgs("%lamp%", int64(2), minPrice, 5, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock"}).AddRow(11, "Desk lamp", "25.50", 2))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM product_categories pc`)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "id", "name"}))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM product_images`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "category_id", "path", "alt_text", "is_main"}))

	products, total, err := repo.ListProducts(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Desk lamp", products[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMainImageDemotesOthersInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE product_images SET is_main = FALSE WHERE product_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO product_images`)).
		WithArgs(int64(7), nil, "/img/new.png", "", true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectCommit()

	img := &Image{ProductID: 7, Path: "/img/new.png", IsMain: true}
	require.NoError(t, repo.AddImage(context.Background(), img))
	assert.Equal(t, int64(12), img.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProductRollsBackOnCategoryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO products (name, price, stock)`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO product_categories`)).
		WithArgs(int64(8), pq.Array([]int64{1, 2})).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	p := &Product{Name: "Lamp", Price: decimal.NewFromInt(10), Stock: 1}
	err = repo.CreateProduct(context.Background(), p, []int64{1, 2})
	assert.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategoryUnknown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM categories WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewCategoryPostgresRepository(db).DeleteCategory(context.Background(), 4)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCategoryDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO categories (name)`)).
		WithArgs("Home").
		WillReturnError(&pq.Error{Code: "23505"})

	err = NewCategoryPostgresRepository(db).CreateCategory(context.Background(), &Category{Name: "Home"})
	assert.ErrorIs(t, err, ErrCategoryExists)
	require.NoError(t, mock.ExpectationsWereMet())
}
