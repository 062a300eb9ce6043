package products

import (
	"github.com/odyssey-erp/admindash/internal/platform/httpx"
)

// Form is the editable part of a product.
type Form struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Description  string  `json:"description" validate:"max=2000"`
	Category     string  `json:"category" validate:"required,product_category"`
	Availability string  `json:"availability" validate:"required,product_availability"`
	Price        float64 `json:"price" validate:"gt=0"`
	Stock        int     `json:"stock" validate:"gte=0"`
	ImageURL     string  `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

func (f Form) apply(p Product) Product {
	p.Name = f.Name
	p.Description = f.Description
	p.Category = f.Category
	p.Availability = f.Availability
	p.Price = f.Price
	p.PriceRange = PriceRangeFor(f.Price)
	p.Stock = f.Stock
	p.ImageURL = f.ImageURL
	return p
}

// BulkDeleteRequest names the products to remove.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// BulkCategoryRequest moves products into another category.
type BulkCategoryRequest struct {
	IDs      []string `json:"ids" validate:"required,min=1,dive,required"`
	Category string   `json:"category" validate:"required,product_category"`
}

func newValidator() *httpx.Validator {
	v := httpx.NewValidator()
	// Tags are static, registration only fails on programmer error.
	if err := v.RegisterOptions("product_category", Categories.Values()); err != nil {
		panic(err)
	}
	if err := v.RegisterOptions("product_availability", Availability.Values()); err != nil {
		panic(err)
	}
	return v
}

// Validate checks a stored record against the rules applied to edits.
func Validate(p Product) error {
	form := Form{
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		Availability: p.Availability,
		Price:        p.Price,
		Stock:        p.Stock,
		ImageURL:     p.ImageURL,
	}
	return newValidator().Struct(form)
}
