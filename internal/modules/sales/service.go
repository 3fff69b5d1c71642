package sales

import (
	"context"
	"strings"
	"time"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
	"github.com/shopspring/decimal"
)

// Service defines cart, checkout and sales history business logic.
type Service interface {
	Cart(ctx context.Context, userID int64) (*Cart, error)
	AddToCart(ctx context.Context, userID, productID int64, qty int) (*CartEntry, error)
	UpdateCartEntry(ctx context.Context, userID, entryID int64, qty int) (*CartEntry, error)
	RemoveCartEntry(ctx context.Context, userID, entryID int64) error
	ClearCart(ctx context.Context, userID int64) (int, error)

	// Checkout converts the user's live cart into a sale. An empty description
	// becomes DefaultDescription.
	Checkout(ctx context.Context, userID int64, description string) (*Sale, error)

	ListSales(ctx context.Context, f SaleFilter) ([]*Sale, Pagination, error)
	GetSale(ctx context.Context, id int64) (*Sale, error)
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Cart(ctx context.Context, userID int64) (*Cart, error) {
	entries, err := s.repo.ListCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Subtotal)
	}
	return &Cart{Entries: entries, Total: total, Count: len(entries)}, nil
}

func (s *service) AddToCart(ctx context.Context, userID, productID int64, qty int) (*CartEntry, error) {
	if productID <= 0 {
		return nil, apperr.Validation("id_Product is required")
	}
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	return s.repo.AddToCart(ctx, userID, productID, qty)
}

func (s *service) UpdateCartEntry(ctx context.Context, userID, entryID int64, qty int) (*CartEntry, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	return s.repo.UpdateCartEntry(ctx, userID, entryID, qty)
}

func (s *service) RemoveCartEntry(ctx context.Context, userID, entryID int64) error {
	return s.repo.RemoveCartEntry(ctx, userID, entryID)
}

func (s *service) ClearCart(ctx context.Context, userID int64) (int, error) {
	return s.repo.ClearCart(ctx, userID)
}

func (s *service) Checkout(ctx context.Context, userID int64, description string) (*Sale, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		description = DefaultDescription
	}
	return s.repo.Checkout(ctx, userID, description)
}

func (s *service) ListSales(ctx context.Context, f SaleFilter) ([]*Sale, Pagination, error) {
	f.normalize()
	sales, total, err := s.repo.ListSales(ctx, f)
	if err != nil {
		return nil, Pagination{}, err
	}
	return sales, Pagination{
		Page:    f.Page,
		Pages:   (total + f.PerPage - 1) / f.PerPage,
		PerPage: f.PerPage,
		Total:   total,
	}, nil
}

func (s *service) GetSale(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.GetSale(ctx, id)
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx, s.now().Add(-recentWindow))
}
