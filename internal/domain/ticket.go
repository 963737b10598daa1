package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Ticket struct {
	ID         int64           `gorm:"primaryKey"`
	Date       time.Time       `gorm:"not null"`
	Discount   decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	LocationID int64           `gorm:"not null"`
	Products   []Product       `gorm:"many2many:product_ticket;"`

	LocationAddress string `gorm:"->"`
}

var hundred = decimal.NewFromInt(100)

// Total is the sum of product prices less the discount percentage, rounded half-up
// to two decimals. It is never persisted.
func (t Ticket) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range t.Products {
		total = total.Add(p.Price)
	}
	if t.Discount.GreaterThan(decimal.Zero) {
		total = total.Sub(total.Mul(t.Discount).Div(hundred))
	}
	return total.Round(2)
}

// HasProductNamed reports whether a product with the given name (case-insensitive) is attached.
func (t Ticket) HasProductNamed(name string) bool {
	for _, p := range t.Products {
		if equalFold(p.Name, name) {
			return true
		}
	}
	return false
}
