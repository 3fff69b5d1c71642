// Package sales holds the shopping cart, the checkout transaction that turns a cart
// into a sale, and the sales history.
package sales

import (
	"time"

	"github.com/georgemunganga/shopfront-api/internal/modules/catalog"
	"github.com/shopspring/decimal"
)

// CartEntry is one product line in a user's cart. An entry with a nil SaleID is live;
// checkout links it to the sale it became part of.
type CartEntry struct {
	ID        int64            `json:"id_TemporalSales"`
	UserID    int64            `json:"iD_User"`
	SaleID    *int64           `json:"id_Sale"`
	ProductID int64            `json:"id_Product"`
	Quantity  int              `json:"quantity"`
	AddedAt   time.Time        `json:"DateAdded"`
	Product   *catalog.Product `json:"product"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
}

// Cart is the live cart of one user, priced at current product prices.
type Cart struct {
	Entries []CartEntry     `json:"cart_items"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
}

// Sale is a completed checkout.
type Sale struct {
	ID          int64           `json:"id_Sale"`
	Description string          `json:"DescripcionSale"`
	UserID      int64           `json:"iD_User"`
	UserName    string          `json:"user"`
	CreatedAt   time.Time       `json:"DateCreated"`
	Details     []Detail        `json:"details"`
	Total       decimal.Decimal `json:"total"`
}

// Detail is one line of a sale. Value is the unit price at checkout times Quantity.
type Detail struct {
	ID          int64            `json:"id_SalesDetails"`
	SaleID      int64            `json:"id_Sale"`
	ProductID   int64            `json:"id_Product"`
	CartEntryID *int64           `json:"id_TemporalSales"`
	Quantity    int              `json:"amount"`
	Value       decimal.Decimal  `json:"ValueSale"`
	CreatedAt   time.Time        `json:"DateSales"`
	Product     *catalog.Product `json:"product,omitempty"`
}

// Stats summarises all sales.
type Stats struct {
	TotalSales   int             `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	RecentSales  int             `json:"recent_sales"`
	AverageSale  decimal.Decimal `json:"average_sale"`
}

// SaleFilter selects a page of sales; a zero UserID selects every user.
type SaleFilter struct {
	UserID  int64
	Page    int
	PerPage int
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

const (
	DefaultDescription = "Online purchase"

	defaultPerPage = 10
	maxPerPage     = 100
	recentWindow   = 30 * 24 * time.Hour
)

func (f *SaleFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage > maxPerPage {
		f.PerPage = maxPerPage
	}
}

// sumDetails returns the sale total as the sum of its detail values.
func sumDetails(details []Detail) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.Value)
	}
	return total
}

func lineValue(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}
