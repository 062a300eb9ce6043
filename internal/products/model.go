// Package products serves the product catalog: list queries, mutations,
// CSV import and export.
package products

import (
	"github.com/odyssey-erp/admindash/internal/catalog"
	"github.com/odyssey-erp/admindash/internal/listing"
)

// Resource is the dataset and cache name of the catalog.
const Resource = "products"

// Product is one catalog entry.
type Product struct {
	ID           string  `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	Description  string  `json:"description" db:"description"`
	Category     string  `json:"category" db:"category"`
	Availability string  `json:"availability" db:"availability"`
	PriceRange   string  `json:"priceRange" db:"price_range"`
	Price        float64 `json:"price" db:"price"`
	Stock        int     `json:"stock" db:"stock"`
	ImageURL     string  `json:"imageUrl" db:"image_url"`
}

func productKey(p Product) string { return p.ID }

var (
	Categories = catalog.Options{
		{Value: "electronics", Label: "Electronics", Icon: "Cpu"},
		{Value: "clothing", Label: "Clothing", Icon: "Shirt"},
		{Value: "books", Label: "Books", Icon: "BookOpen"},
		{Value: "furniture", Label: "Furniture", Icon: "Bed"},
		{Value: "sports", Label: "Sports", Icon: "Dumbbell"},
		{Value: "toys", Label: "Toys", Icon: "Puzzle"},
	}
	Availability = catalog.Options{
		{Value: "in-stock", Label: "In Stock", Icon: "Check"},
		{Value: "out-of-stock", Label: "Out of Stock", Icon: "X"},
		{Value: "preorder", Label: "Preorder", Icon: "Clock"},
	}
	PriceRanges = catalog.Options{
		{Value: "budget", Label: "Budget", Icon: "HandCoins"},
		{Value: "standard", Label: "Standard", Icon: "CreditCard"},
		{Value: "premium", Label: "Premium", Icon: "Crown"},
	}
)

// Price band upper bounds, exclusive.
const (
	budgetCeiling   = 50.0
	standardCeiling = 200.0
)

// PriceRangeFor classifies a price into its band.
func PriceRangeFor(price float64) string {
	switch {
	case price < budgetCeiling:
		return "budget"
	case price < standardCeiling:
		return "standard"
	default:
		return "premium"
	}
}

// Filters is the faceted filter vocabulary served to clients.
type Filters struct {
	Category     catalog.Options `json:"category"`
	Availability catalog.Options `json:"availability"`
	Price        catalog.Options `json:"price"`
}

// FilterOptions returns the option lists of every faceted filter.
func FilterOptions() Filters {
	return Filters{Category: Categories, Availability: Availability, Price: PriceRanges}
}

// Schema describes how product lists are filtered, searched and sorted.
func Schema() listing.Schema[Product] {
	return listing.Schema[Product]{
		Columns: []listing.Column{
			{ID: "availability", Mode: listing.MultiSelect},
			{ID: "priceRange", Mode: listing.MultiSelect, Param: "price"},
			{ID: "category", Mode: listing.MultiSelect},
			{ID: "name", Mode: listing.MultiSelect},
			{ID: "search", Mode: listing.Search},
		},
		Match: map[string]func(Product) string{
			"availability": func(p Product) string { return p.Availability },
			"priceRange":   func(p Product) string { return p.PriceRange },
			"category":     func(p Product) string { return p.Category },
			"name":         func(p Product) string { return p.Name },
		},
		Search: []func(Product) string{
			func(p Product) string { return p.Name },
			func(p Product) string { return p.ID },
		},
		Compare: map[string]func(a, b Product) int{
			"id":           listing.By(func(p Product) string { return p.ID }),
			"name":         listing.By(func(p Product) string { return p.Name }),
			"description":  listing.By(func(p Product) string { return p.Description }),
			"category":     listing.By(func(p Product) string { return p.Category }),
			"availability": listing.By(func(p Product) string { return p.Availability }),
			"priceRange":   listing.By(func(p Product) string { return p.PriceRange }),
			"price":        listing.By(func(p Product) float64 { return p.Price }),
			"stock":        listing.By(func(p Product) int { return p.Stock }),
		},
	}
}
