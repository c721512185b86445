// Package rates holds the daily rate snapshot model and the error kinds
// shared across the service.
package rates

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format of a snapshot.
const DateLayout = "2006-01-02"

var codeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// RateSet is one daily snapshot of exchange rates relative to Base.
// Rates maps a currency code to the units of that currency per one unit of
// Base. Base is never a key of Rates.
type RateSet struct {
	Date  string                     `json:"date"`
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Entry is a raw (code, rate) pair as reported by a feed.
type Entry struct {
	Code string
	Rate string
}

// NewRateSet builds and validates a snapshot from raw feed entries.
// Codes are uppercased and a later duplicate overwrites an earlier one.
// Entries for base itself and entries whose code is not three ASCII letters
// are dropped. A bad rate on a well-formed code rejects the whole snapshot.
func NewRateSet(date, base string, entries []Entry) (*RateSet, error) {
	base = NormalizeCode(base)
	if !codeRe.MatchString(base) {
		return nil, fmt.Errorf("%w: invalid base currency %q", ErrInvalidRateSet, base)
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}

	table := make(map[string]decimal.Decimal, len(entries))
	for _, e := range entries {
		code := NormalizeCode(e.Code)
		if !codeRe.MatchString(code) {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(e.Rate))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid rate %q for %s", ErrInvalidRateSet, e.Rate, code)
		}
		if rate.IsNegative() {
			return nil, fmt.Errorf("%w: negative rate %s for %s", ErrInvalidRateSet, rate, code)
		}
		if code == base {
			continue
		}
		table[code] = rate
	}

	rs := &RateSet{Date: date, Base: base, Rates: table}
	if len(rs.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty rate table", ErrInvalidRateSet)
	}
	return rs, nil
}

// Validate checks every snapshot invariant. It is used on copies read back
// from storage.
func (rs *RateSet) Validate() error {
	if rs == nil {
		return fmt.Errorf("%w: nil rate set", ErrInvalidRateSet)
	}
	if !codeRe.MatchString(rs.Base) {
		return fmt.Errorf("%w: invalid base currency %q", ErrInvalidRateSet, rs.Base)
	}
	if err := validateDate(rs.Date); err != nil {
		return err
	}
	if len(rs.Rates) == 0 {
		return fmt.Errorf("%w: empty rate table", ErrInvalidRateSet)
	}
	for code, rate := range rs.Rates {
		if !codeRe.MatchString(code) {
			return fmt.Errorf("%w: invalid currency code %q", ErrInvalidRateSet, code)
		}
		if code == rs.Base {
			return fmt.Errorf("%w: base %s present in rate table", ErrInvalidRateSet, code)
		}
		if rate.IsNegative() {
			return fmt.Errorf("%w: negative rate %s for %s", ErrInvalidRateSet, rate, code)
		}
	}
	return nil
}

// Rate returns the base-relative rate of code: one for the base, the table
// entry otherwise.
func (rs *RateSet) Rate(code string) (decimal.Decimal, error) {
	code = NormalizeCode(code)
	if code == rs.Base {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := rs.Rates[code]
	if !ok {
		return decimal.Zero, NotFound(code)
	}
	return rate, nil
}

// Clone returns a deep copy.
func (rs *RateSet) Clone() *RateSet {
	if rs == nil {
		return nil
	}
	table := make(map[string]decimal.Decimal, len(rs.Rates))
	for code, rate := range rs.Rates {
		table[code] = rate
	}
	return &RateSet{Date: rs.Date, Base: rs.Base, Rates: table}
}

// Codes returns the table's currency codes in sorted order, base excluded.
func (rs *RateSet) Codes() []string {
	codes := make([]string, 0, len(rs.Rates))
	for code := range rs.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NormalizeCode trims and uppercases a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrInvalidRateSet, date)
	}
	return nil
}
