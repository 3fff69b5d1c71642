package catalog

import "github.com/shopspring/decimal"

// Category groups products. Names are unique.
type Category struct {
	ID   int64  `json:"id_Category"`
	Name string `json:"CategoryName"`
}

// CategoryStats summarises the products filed under one category.
type CategoryStats struct {
	Category     Category        `json:"category"`
	ProductCount int             `json:"product_count"`
	TotalStock   int             `json:"total_stock"`
	AveragePrice decimal.Decimal `json:"average_price"`
}
