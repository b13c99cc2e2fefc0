package catalog

import "errors"

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrInvalidCapacity = errors.New("total seats must not be negative")
)
