package rates

import (
	"errors"
	"fmt"
)

// Error kinds shared by the fetch, store, convert and request paths.
// Callers wrap them with fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrCurrencyNotFound = errors.New("currency not found")
	ErrNoRatesAvailable = errors.New("no exchange rates available. Please try again later")
	ErrValidation       = errors.New("invalid parameter")
	ErrFetch            = errors.New("failed to fetch rates feed")
	ErrParse            = errors.New("failed to parse rates feed")
	ErrStore            = errors.New("rates store error")
	ErrCalculation      = errors.New("calculation error")
	ErrInternal         = errors.New("internal error")

	// ErrInvalidRateSet is returned when a RateSet cannot be constructed.
	ErrInvalidRateSet = errors.New("invalid rate set")
)

// CurrencyNotFoundError names the currency code missing from a RateSet.
type CurrencyNotFoundError struct {
	Code string
}

func (e *CurrencyNotFoundError) Error() string {
	return fmt.Sprintf("currency code '%s' not found in exchange rates", e.Code)
}

// Is reports ErrCurrencyNotFound as the error kind.
func (e *CurrencyNotFoundError) Is(target error) bool {
	return target == ErrCurrencyNotFound
}

// NotFound returns a CurrencyNotFoundError for code.
func NotFound(code string) error {
	return &CurrencyNotFoundError{Code: code}
}
