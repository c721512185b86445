// Package events publishes notifications about stored rate snapshots.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotEvent announces that a new snapshot was stored.
type SnapshotEvent struct {
	RunID      string                     `json:"run_id"`
	Trigger    string                     `json:"trigger"`
	Date       string                     `json:"date"`
	Base       string                     `json:"base"`
	Currencies int                        `json:"currencies"`
	Rates      map[string]decimal.Decimal `json:"rates"`
	StoredAt   time.Time                  `json:"stored_at"`
}

// Publisher delivers snapshot events to downstream consumers.
type Publisher interface {
	PublishSnapshot(ctx context.Context, event SnapshotEvent) error
	Close() error
}

var _ Publisher = NopPublisher{}

// NopPublisher drops every event. It is used when publishing is disabled.
type NopPublisher struct{}

// PublishSnapshot implements Publisher.
func (NopPublisher) PublishSnapshot(context.Context, SnapshotEvent) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
