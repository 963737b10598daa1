package domain

type Region struct {
	ID   int64  `db:"id" form:"id"`
	Code string `db:"code" form:"code" validate:"required,max=2"`
	Name string `db:"name" form:"name" validate:"required,max=100"`
}

type Province struct {
	ID       int64  `db:"id" form:"id"`
	Code     string `db:"code" form:"code" validate:"required,max=2"`
	Name     string `db:"name" form:"name" validate:"required,max=100"`
	RegionID int64  `db:"region_id" form:"regionId" validate:"required,gt=0"`

	RegionName string `db:"region_name" form:"-"`
}
