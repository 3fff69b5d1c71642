package catalog

import (
	"context"
	"strings"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
	"github.com/shopspring/decimal"
)

// Service defines catalog business logic.
type Service interface {
	ListProducts(ctx context.Context, f ProductFilter) ([]*Product, Pagination, error)
	FeaturedProducts(ctx context.Context) ([]*Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	UpdateStock(ctx context.Context, id int64, stock *int) (*Product, error)
	AddImage(ctx context.Context, productID int64, req AddImageRequest) (*Image, error)
	DeleteImage(ctx context.Context, productID, imageID int64) error

	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	CreateCategory(ctx context.Context, name string) (*Category, error)
	UpdateCategory(ctx context.Context, id int64, name string) (*Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CategoryProducts(ctx context.Context, id int64, f ProductFilter) (*Category, []*Product, Pagination, error)
	CategoryStats(ctx context.Context) ([]CategoryStats, error)
}

// CreateProductRequest holds the data for creating a product.
type CreateProductRequest struct {
	Name       string          `json:"ProductName"`
	Price      decimal.Decimal `json:"Price"`
	Stock      int             `json:"Stock"`
	Categories []int64         `json:"categories"`
}

// UpdateProductRequest carries optional product changes; nil fields are left alone.
type UpdateProductRequest struct {
	Name       *string          `json:"ProductName"`
	Price      *decimal.Decimal `json:"Price"`
	Stock      *int             `json:"Stock"`
	Categories *[]int64         `json:"categories"`
}

// AddImageRequest holds the data for attaching an image to a product.
type AddImageRequest struct {
	Path       string `json:"pathimage"`
	CategoryID *int64 `json:"id_Category"`
	AltText    string `json:"alt_text"`
	IsMain     bool   `json:"is_main_image"`
}

type service struct {
	products   Repository
	categories CategoryRepository
}

func NewService(products Repository, categories CategoryRepository) Service {
	return &service{products: products, categories: categories}
}

func (s *service) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, Pagination, error) {
	f.normalize()
	products, total, err := s.products.ListProducts(ctx, f)
	if err != nil {
		return nil, Pagination{}, err
	}
	return products, newPagination(f.Page, f.PerPage, total), nil
}

func (s *service) FeaturedProducts(ctx context.Context) ([]*Product, error) {
	return s.products.FeaturedProducts(ctx, featuredLimit)
}

func (s *service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return s.products.GetProduct(ctx, id)
}

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, apperr.Validation("ProductName is required")
	case !req.Price.IsPositive():
		return nil, apperr.Validation("Price must be greater than zero")
	case req.Stock < 0:
		return nil, ErrNegativeStock
	}
	p := &Product{Name: name, Price: req.Price, Stock: req.Stock}
	if err := s.products.CreateProduct(ctx, p, req.Categories); err != nil {
		return nil, err
	}
	return s.products.GetProduct(ctx, p.ID)
}

func (s *service) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("ProductName cannot be empty")
		}
		p.Name = name
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, apperr.Validation("Price must be greater than zero")
		}
		p.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, ErrNegativeStock
		}
		p.Stock = *req.Stock
	}
	var categoryIDs []int64
	if req.Categories != nil {
		categoryIDs = append([]int64{}, *req.Categories...)
	}
	if err := s.products.UpdateProduct(ctx, p, categoryIDs); err != nil {
		return nil, err
	}
	return s.products.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.products.GetProduct(ctx, id); err != nil {
		return err
	}
	sold, err := s.products.HasSales(ctx, id)
	if err != nil {
		return err
	}
	if sold {
		return ErrProductHasSales
	}
	return s.products.DeleteProduct(ctx, id)
}

func (s *service) UpdateStock(ctx context.Context, id int64, stock *int) (*Product, error) {
	if stock == nil {
		return nil, apperr.Validation("Stock is required")
	}
	if *stock < 0 {
		return nil, ErrNegativeStock
	}
	if err := s.products.SetStock(ctx, id, *stock); err != nil {
		return nil, err
	}
	return s.products.GetProduct(ctx, id)
}

func (s *service) AddImage(ctx context.Context, productID int64, req AddImageRequest) (*Image, error) {
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return nil, apperr.Validation("pathimage is required")
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	img := &Image{
		ProductID:  productID,
		CategoryID: req.CategoryID,
		Path:       path,
		AltText:    req.AltText,
		IsMain:     req.IsMain,
	}
	if err := s.products.AddImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *service) DeleteImage(ctx context.Context, productID, imageID int64) error {
	return s.products.DeleteImage(ctx, productID, imageID)
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.categories.ListCategories(ctx)
}

func (s *service) GetCategory(ctx context.Context, id int64) (*Category, error) {
	return s.categories.GetCategory(ctx, id)
}

func (s *service) CreateCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("CategoryName is required")
	}
	c := &Category{Name: name}
	if err := s.categories.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) UpdateCategory(ctx context.Context, id int64, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("CategoryName is required")
	}
	c := &Category{ID: id, Name: name}
	if err := s.categories.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.categories.GetCategory(ctx, id); err != nil {
		return err
	}
	n, err := s.categories.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	return s.categories.DeleteCategory(ctx, id)
}

func (s *service) CategoryProducts(ctx context.Context, id int64, f ProductFilter) (*Category, []*Product, Pagination, error) {
	c, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return nil, nil, Pagination{}, err
	}
	f.CategoryID = id
	products, page, err := s.ListProducts(ctx, f)
	if err != nil {
		return nil, nil, Pagination{}, err
	}
	return c, products, page, nil
}

func (s *service) CategoryStats(ctx context.Context) ([]CategoryStats, error) {
	return s.categories.CategoryStats(ctx)
}
