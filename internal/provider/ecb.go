package provider

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fxrates/internal/rates"
)

const (
	// DefaultECBURL is the ECB daily reference rates feed.
	DefaultECBURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"

	userAgent    = "fxrates/1.0"
	maxFeedBytes = 4 << 20
)

var _ RatesProvider = (*ECBProvider)(nil)

// ECBProvider fetches rates from an ECB eurofxref style XML feed.
type ECBProvider struct {
	url          string
	baseCurrency string
	client       *http.Client
}

// NewECBProvider creates a new ECBProvider. The feed does not list its own
// currency, so baseCurrency names it explicitly.
func NewECBProvider(url, baseCurrency string, timeoutSec int) *ECBProvider {
	if url == "" {
		url = DefaultECBURL
	}
	if baseCurrency == "" {
		baseCurrency = "EUR"
	}
	return &ECBProvider{
		url:          url,
		baseCurrency: rates.NormalizeCode(baseCurrency),
		client:       &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

type ecbEnvelope struct {
	Days []ecbDay `xml:"Cube>Cube"`
}

type ecbDay struct {
	Time  string    `xml:"time,attr"`
	Rates []ecbRate `xml:"Cube"`
}

type ecbRate struct {
	Currency string `xml:"currency,attr"`
	Rate     string `xml:"rate,attr"`
}

// FetchRates downloads the feed and parses its most recent dated cube.
func (p *ECBProvider) FetchRates(ctx context.Context) (*rates.RateSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: request creation failed: %w", rates.ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", rates.ErrFetch, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: feed returned status %d: %s", rates.ErrFetch, resp.StatusCode, string(body))
	}

	return ParseECB(io.LimitReader(resp.Body, maxFeedBytes), p.baseCurrency)
}

// ParseECB decodes an eurofxref envelope and builds a RateSet from the first
// dated cube.
func ParseECB(r io.Reader, baseCurrency string) (*rates.RateSet, error) {
	var env ecbEnvelope
	if err := xml.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: malformed XML: %w", rates.ErrParse, err)
	}

	var day *ecbDay
	for i := range env.Days {
		if env.Days[i].Time != "" {
			day = &env.Days[i]
			break
		}
	}
	if day == nil {
		return nil, fmt.Errorf("%w: no dated cube in feed", rates.ErrParse)
	}

	entries := make([]rates.Entry, 0, len(day.Rates))
	for _, r := range day.Rates {
		entries = append(entries, rates.Entry{Code: r.Currency, Rate: r.Rate})
	}

	rs, err := rates.NewRateSet(day.Time, baseCurrency, entries)
	if err != nil {
		if errors.Is(err, rates.ErrInvalidRateSet) {
			return nil, fmt.Errorf("%w: %w", rates.ErrParse, err)
		}
		return nil, err
	}
	return rs, nil
}
