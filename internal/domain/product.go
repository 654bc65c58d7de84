package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog view the commerce core reads and the counters it maintains.
// Catalog CRUD lives outside this service.
type Product struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	IsActive   bool            `json:"isActive"`
	Stock      int32           `json:"stock"`
	FinalPrice decimal.Decimal `json:"finalPrice"`
	SalesCount int32           `json:"salesCount"`
}

// IsPurchasable reports whether qty units can currently be sold.
func (p *Product) IsPurchasable(qty int32) bool {
	return p.IsActive && p.Stock >= qty
}

// Product errors.
var (
	ErrProductNotFound    = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrProductUnavailable = &Error{Code: EINVALIDSTATE, Message: "Product is not available"}
	ErrInsufficientStock  = &Error{Code: ESTOCK, Message: "Insufficient stock for the requested quantity"}
)
