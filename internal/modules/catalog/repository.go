package catalog

import (
	"context"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
)

var (
	ErrProductNotFound  = apperr.New(apperr.KindNotFound, "product_not_found", "product not found")
	ErrImageNotFound    = apperr.New(apperr.KindNotFound, "image_not_found", "image not found")
	ErrProductHasSales  = apperr.BusinessRule("product_has_sales", "cannot delete a product with associated sales")
	ErrNegativeStock    = apperr.BusinessRule("negative_stock", "stock cannot be negative")
	ErrCategoryNotFound = apperr.New(apperr.KindNotFound, "category_not_found", "category not found")
	ErrCategoryExists   = apperr.New(apperr.KindConflict, "category_exists", "category name already exists")
	ErrCategoryInUse    = apperr.BusinessRule("category_in_use", "cannot delete a category with associated products")
)

// Repository defines the interface for product storage.
type Repository interface {
	// ListProducts returns one page of products matching f and the total match count.
	ListProducts(ctx context.Context, f ProductFilter) ([]*Product, int, error)
	FeaturedProducts(ctx context.Context, limit int) ([]*Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	// CreateProduct inserts p and links it to the categories in categoryIDs that exist.
	CreateProduct(ctx context.Context, p *Product, categoryIDs []int64) error
	// UpdateProduct writes p; a nil categoryIDs leaves the category links untouched.
	UpdateProduct(ctx context.Context, p *Product, categoryIDs []int64) error
	DeleteProduct(ctx context.Context, id int64) error
	HasSales(ctx context.Context, id int64) (bool, error)
	SetStock(ctx context.Context, id int64, stock int) error
	// AddImage inserts img; a main image demotes the product's other images.
	AddImage(ctx context.Context, img *Image) error
	DeleteImage(ctx context.Context, productID, imageID int64) error
}

// CategoryRepository defines the interface for category storage.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error
	CountProducts(ctx context.Context, id int64) (int, error)
	CategoryStats(ctx context.Context) ([]CategoryStats, error)
}
