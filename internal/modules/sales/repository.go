package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
	"github.com/georgemunganga/shopfront-api/internal/modules/catalog"
)

var (
	ErrInvalidQuantity   = apperr.New(apperr.KindValidation, "invalid_quantity", "quantity must be greater than zero")
	ErrProductNotFound   = catalog.ErrProductNotFound
	ErrInsufficientStock = apperr.BusinessRule("insufficient_stock", "insufficient stock")
	ErrEmptyCart         = apperr.BusinessRule("empty_cart", "cart is empty")
	ErrEntryNotFound     = apperr.New(apperr.KindNotFound, "cart_entry_not_found", "cart item not found")
	ErrSaleNotFound      = apperr.New(apperr.KindNotFound, "sale_not_found", "sale not found")
)

// insufficientStock names the product that could not cover the requested quantity.
// It still matches ErrInsufficientStock under errors.Is.
func insufficientStock(product string) error {
	return apperr.BusinessRule(ErrInsufficientStock.Code, fmt.Sprintf("insufficient stock for %s", product))
}

// Repository defines the interface for cart and sale storage.
type Repository interface {
	// AddToCart merges qty into the user's live entry for productID, creating it if
	// needed. The merged quantity may not exceed the product's stock.
	AddToCart(ctx context.Context, userID, productID int64, qty int) (*CartEntry, error)
	// UpdateCartEntry sets the quantity of one of the user's live entries.
	UpdateCartEntry(ctx context.Context, userID, entryID int64, qty int) (*CartEntry, error)
	RemoveCartEntry(ctx context.Context, userID, entryID int64) error
	ClearCart(ctx context.Context, userID int64) (int, error)
	ListCart(ctx context.Context, userID int64) ([]CartEntry, error)

	// Checkout turns the user's live cart into a sale in one transaction.
	Checkout(ctx context.Context, userID int64, description string) (*Sale, error)

	ListSales(ctx context.Context, f SaleFilter) ([]*Sale, int, error)
	GetSale(ctx context.Context, id int64) (*Sale, error)
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}
