// Package converter implements currency conversion and base rebasing over a
// daily rate snapshot. All functions are pure and safe for concurrent use.
package converter

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fxrates/internal/rates"
)

var one = decimal.NewFromInt(1)

// Convert converts amount from one currency to another using the snapshot's
// base as the pivot. It returns the converted amount and the cross rate
// (units of to per one unit of from).
func Convert(rs *rates.RateSet, from, to string, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: amount must be non-negative", rates.ErrValidation)
	}

	from = rates.NormalizeCode(from)
	to = rates.NormalizeCode(to)
	if from == to {
		return amount, one, nil
	}

	rateFrom, err := rs.Rate(from)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	rateTo, err := rs.Rate(to)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	if rateFrom.IsZero() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: zero rate for %s", rates.ErrCalculation, from)
	}
	cross := rateTo.Div(rateFrom)

	return amount.Mul(cross), cross, nil
}

// Rebase re-expresses the snapshot relative to newBase. The old base appears
// in the result as 1/rate(newBase) and newBase itself is omitted. The date is
// kept. Rebasing to the current base returns a copy.
func Rebase(rs *rates.RateSet, newBase string) (*rates.RateSet, error) {
	newBase = rates.NormalizeCode(newBase)
	if newBase == rs.Base {
		return rs.Clone(), nil
	}

	baseRate, ok := rs.Rates[newBase]
	if !ok {
		return nil, rates.NotFound(newBase)
	}
	if baseRate.IsZero() {
		return nil, fmt.Errorf("%w: zero rate for %s", rates.ErrCalculation, newBase)
	}

	table := make(map[string]decimal.Decimal, len(rs.Rates))
	table[rs.Base] = one.Div(baseRate)
	for code, rate := range rs.Rates {
		if code == newBase {
			continue
		}
		table[code] = rate.Div(baseRate)
	}

	return &rates.RateSet{Date: rs.Date, Base: newBase, Rates: table}, nil
}
