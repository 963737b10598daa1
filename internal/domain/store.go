package domain

type Supermarket struct {
	ID   int64  `db:"id" form:"id"`
	Name string `db:"name" form:"name" validate:"required,max=100"`
}

type Location struct {
	ID            int64  `db:"id" form:"id"`
	Address       string `db:"address" form:"address" validate:"required,max=100"`
	City          string `db:"city" form:"city" validate:"required,max=100"`
	SupermarketID int64  `db:"supermarket_id" form:"supermarketId" validate:"required,gt=0"`
	ProvinceID    int64  `db:"province_id" form:"provinceId" validate:"required,gt=0"`

	SupermarketName string `db:"supermarket_name" form:"-"`
	ProvinceName    string `db:"province_name" form:"-"`
}
