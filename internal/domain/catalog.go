package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID       int64  `db:"id" form:"id"`
	Name     string `db:"name" form:"name" validate:"required,max=100"`
	Image    string `db:"image" form:"-" validate:"max=500"`
	ParentID *int64 `db:"parent_id" form:"-"`

	ParentName string `db:"parent_name" form:"-"`
}

// Product rows are read and written through gorm; CategoryName is only filled by joined queries.
type Product struct {
	ID         int64           `gorm:"primaryKey" form:"id"`
	Name       string          `gorm:"size:100;not null" form:"name" validate:"required,min=2,max=100"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" form:"-"`
	CategoryID *int64          `form:"-"`

	CategoryName string `gorm:"->" form:"-"`
}
