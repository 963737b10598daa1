package services

import "errors"

var (
	ErrCodeExists      = errors.New("code already exists")
	ErrNameExists      = errors.New("name already exists")
	ErrAddressExists   = errors.New("address already exists")
	ErrCategoryCycle   = errors.New("category cannot be its own ancestor")
	ErrProductOnTicket = errors.New("a product with that name is already on the ticket")
	ErrBadCreds        = errors.New("invalid username or password")
	ErrNotRegistered   = errors.New("user is not registered in this application")
	ErrBadState        = errors.New("invalid oauth2 state")
	ErrUnknownProvider = errors.New("unknown oauth2 provider")
	ErrSelfDelete      = errors.New("cannot delete the signed-in user")
	ErrBadImage        = errors.New("unsupported image type")
)
