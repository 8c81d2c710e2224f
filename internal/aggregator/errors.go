package aggregator

import (
	"errors"
	"fmt"
)

var (
	ErrCatalogUnavailable = errors.New("service catalog unavailable")
	ErrInvalidWindow      = errors.New("window must be a positive number of days")
	ErrServiceNotFound    = errors.New("service not found")
)

// CatalogError is the one fatal failure of a refresh: without the catalog
// there is nothing to show.
type CatalogError struct {
	Cause error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("%v: %v", ErrCatalogUnavailable, e.Cause)
}

func (e *CatalogError) Unwrap() error {
	return e.Cause
}

func (e *CatalogError) Is(target error) bool {
	return target == ErrCatalogUnavailable
}
