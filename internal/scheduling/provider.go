// Package scheduling integrates the upstream scheduling provider that supplies
// raw open time units. The provider knows nothing about rooms, menus, or
// eligibility; it only reports which time units are open per date range.
package scheduling

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the provider failed or timed out. Callers
// treat it as a retryable condition, distinct from bad-request failures.
var ErrUnavailable = errors.New("scheduling: provider unavailable")

// RawTimeUnit is one upstream open slot. Granularity is the provider's own
// spacing; DateTime is unique per unit.
type RawTimeUnit struct {
	Date     string    `json:"date"` // "2026-09-01"
	Time     string    `json:"time"` // "10:30"
	DateTime time.Time `json:"datetime"`
}

// Provider supplies raw open time units for a half-open date range [from, to).
type Provider interface {
	FetchRawTimeUnits(ctx context.Context, from, to time.Time) ([]RawTimeUnit, error)
}
