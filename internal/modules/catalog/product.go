package catalog

import "github.com/shopspring/decimal"

// Product is an item for sale. Stock never goes below zero.
type Product struct {
	ID         int64           `json:"id_Product"`
	Name       string          `json:"ProductName"`
	Price      decimal.Decimal `json:"Price"`
	Stock      int             `json:"Stock"`
	Categories []Category      `json:"categories,omitempty"`
	Images     []Image         `json:"images,omitempty"`
}

// Image is a picture attached to a product. At most one image per product is main.
type Image struct {
	ID         int64  `json:"id_image"`
	ProductID  int64  `json:"id_Product"`
	CategoryID *int64 `json:"id_Category"`
	Path       string `json:"pathimage"`
	AltText    string `json:"alt_text,omitempty"`
	IsMain     bool   `json:"is_main_image"`
}

// ProductFilter narrows a product listing. Zero values mean no restriction.
type ProductFilter struct {
	Search     string
	CategoryID int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
	Page       int
	PerPage    int
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

const (
	defaultPerPage = 10
	maxPerPage     = 100
	featuredLimit  = 8
)

func (f *ProductFilter) normalize() {
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

func newPagination(page, perPage, total int) Pagination {
	pages := (total + perPage - 1) / perPage
	return Pagination{
		Page:    page,
		Pages:   pages,
		PerPage: perPage,
		Total:   total,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}
