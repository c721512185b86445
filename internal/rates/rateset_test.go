package rates

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateSet(t *testing.T) {
	t.Run("normalizes codes and drops base entry", func(t *testing.T) {
		rs, err := NewRateSet("2024-12-04", "eur", []Entry{
			{Code: "usd", Rate: "1.0534"},
			{Code: "JPY", Rate: " 158.23 "},
			{Code: "EUR", Rate: "1"},
		})
		require.NoError(t, err)

		assert.Equal(t, "EUR", rs.Base)
		assert.Equal(t, "2024-12-04", rs.Date)
		assert.Len(t, rs.Rates, 2)
		assert.NotContains(t, rs.Rates, "EUR")
		assert.True(t, rs.Rates["USD"].Equal(decimal.RequireFromString("1.0534")))
		assert.True(t, rs.Rates["JPY"].Equal(decimal.RequireFromString("158.23")))
	})

	t.Run("duplicate codes keep the last value", func(t *testing.T) {
		rs, err := NewRateSet("2024-12-04", "EUR", []Entry{
			{Code: "USD", Rate: "1.0"},
			{Code: "usd", Rate: "1.1"},
		})
		require.NoError(t, err)
		assert.Equal(t, "1.1", rs.Rates["USD"].String())
	})

	t.Run("bad rate names the code", func(t *testing.T) {
		_, err := NewRateSet("2024-12-04", "EUR", []Entry{
			{Code: "USD", Rate: "1.05"},
			{Code: "GBP", Rate: "abc"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRateSet)
		assert.Contains(t, err.Error(), "GBP")
	})

	t.Run("negative rate rejected", func(t *testing.T) {
		_, err := NewRateSet("2024-12-04", "EUR", []Entry{{Code: "USD", Rate: "-1"}})
		assert.ErrorIs(t, err, ErrInvalidRateSet)
	})

	t.Run("bad date rejected", func(t *testing.T) {
		_, err := NewRateSet("04/12/2024", "EUR", []Entry{{Code: "USD", Rate: "1"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRateSet)
		assert.Contains(t, err.Error(), "YYYY-MM-DD")
	})

	t.Run("malformed codes are skipped", func(t *testing.T) {
		rs, err := NewRateSet("2024-12-04", "EUR", []Entry{
			{Code: "US1", Rate: "2"},
			{Code: "USD", Rate: "1.05"},
			{Code: "", Rate: "3"},
			{Code: "GBPX", Rate: "oops"},
		})
		require.NoError(t, err)
		assert.Len(t, rs.Rates, 1)
		assert.Equal(t, "1.05", rs.Rates["USD"].String())
	})

	t.Run("only malformed codes is empty", func(t *testing.T) {
		_, err := NewRateSet("2024-12-04", "EUR", []Entry{{Code: "X1Z", Rate: "1"}})
		require.ErrorIs(t, err, ErrInvalidRateSet)
		assert.Contains(t, err.Error(), "empty rate table")
	})

	t.Run("empty table rejected", func(t *testing.T) {
		_, err := NewRateSet("2024-12-04", "EUR", []Entry{{Code: "EUR", Rate: "1"}})
		assert.ErrorIs(t, err, ErrInvalidRateSet)
	})
}

func TestRateSet_Validate(t *testing.T) {
	rs := &RateSet{
		Date:  "2024-12-04",
		Base:  "EUR",
		Rates: map[string]decimal.Decimal{"USD": decimal.RequireFromString("1.05")},
	}
	assert.NoError(t, rs.Validate())

	withBase := rs.Clone()
	withBase.Rates["EUR"] = decimal.NewFromInt(1)
	assert.ErrorIs(t, withBase.Validate(), ErrInvalidRateSet)

	badDate := rs.Clone()
	badDate.Date = "yesterday"
	assert.ErrorIs(t, badDate.Validate(), ErrInvalidRateSet)

	var nilSet *RateSet
	assert.ErrorIs(t, nilSet.Validate(), ErrInvalidRateSet)
}

func TestRateSet_RateAndClone(t *testing.T) {
	rs := &RateSet{
		Date:  "2024-12-04",
		Base:  "EUR",
		Rates: map[string]decimal.Decimal{"USD": decimal.RequireFromString("1.05")},
	}

	one, err := rs.Rate("eur")
	require.NoError(t, err)
	assert.True(t, one.Equal(decimal.NewFromInt(1)))

	_, err = rs.Rate("XYZ")
	var nf *CurrencyNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "XYZ", nf.Code)
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
	assert.Equal(t, "currency code 'XYZ' not found in exchange rates", err.Error())

	clone := rs.Clone()
	clone.Rates["GBP"] = decimal.RequireFromString("0.85")
	assert.NotContains(t, rs.Rates, "GBP")
	assert.Equal(t, []string{"GBP", "USD"}, clone.Codes())
}
