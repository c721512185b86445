package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fxrates/internal/rates"
)

type latestRatesParams struct {
	Base string `param:"base" validate:"omitempty,len=3,alpha"`
}

type convertParams struct {
	From   string `param:"from" validate:"required,len=3,alpha"`
	To     string `param:"to" validate:"required,len=3,alpha"`
	Amount string `param:"amount" validate:"required"`
}

type updateRunParams struct {
	ID string `param:"id" validate:"required,uuid"`
}

// RequestValidator checks request parameters against struct tag rules and
// reports failures as rates.ErrValidation.
type RequestValidator struct {
	v *validator.Validate
}

// NewRequestValidator creates a RequestValidator that names fields by their
// request parameter name.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("param"); name != "" {
			return name
		}
		return f.Name
	})
	return &RequestValidator{v: v}
}

// Struct validates params and converts the first failure into a readable error.
func (rv *RequestValidator) Struct(params any) error {
	err := rv.v.Struct(params)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %w", rates.ErrValidation, err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", rates.ErrValidation, fe.Field())
	case "len", "alpha":
		return fmt.Errorf("%w: %s must be a three-letter currency code", rates.ErrValidation, fe.Field())
	case "uuid":
		return fmt.Errorf("%w: %s must be a UUID", rates.ErrValidation, fe.Field())
	default:
		return fmt.Errorf("%w: %s", rates.ErrValidation, fe.Field())
	}
}

// Amounts must be below 1e28 with at most 28 decimal places.
const (
	maxAmountIntDigits = 28
	maxAmountScale     = 28
)

// parseAmount parses a non-negative decimal amount within those bounds.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount must be a decimal number", rates.ErrValidation)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount must be non-negative", rates.ErrValidation)
	}

	exp := int64(amount.Exponent())
	if exp < -maxAmountScale {
		return decimal.Zero, fmt.Errorf("%w: amount must have at most %d decimal places", rates.ErrValidation, maxAmountScale)
	}
	if !amount.IsZero() && int64(len(amount.Coefficient().String()))+exp > maxAmountIntDigits {
		return decimal.Zero, fmt.Errorf("%w: amount must be less than 1e%d", rates.ErrValidation, maxAmountIntDigits)
	}
	if amount.IsZero() {
		amount = decimal.Zero
	}
	return amount, nil
}
