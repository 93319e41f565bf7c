package models

import (
	"errors"
)

var (
	ErrCategoryRequired   = errors.New("models: category id is required")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrInvalidCoordinates = errors.New("models: invalid coordinates")
	ErrEmptyQuery         = errors.New("models: empty query")
	ErrPermissionDenied   = errors.New("location permission denied")
	ErrSearchLogDisabled  = errors.New("search log is not configured")
)
