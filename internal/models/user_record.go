package models

import (
	"time"
)

// UTCDateFormat is the layout for usage reset dates (UTC calendar day).
const UTCDateFormat = "2006-01-02"

// Usage tracks the per-UTC-day request counter.
type Usage struct {
	Count     int    `json:"count"`
	LastReset string `json:"lastReset"` // YYYY-MM-DD in UTC
}

// UserRecord is the persisted state for one session: interaction history,
// daily usage and bonus credits. One record per session identifier.
type UserRecord struct {
	History       []Interaction `json:"history"`
	Usage         Usage         `json:"usage"`
	ExtraCredits  int           `json:"extraCredits"`
	CreditsExpiry *time.Time    `json:"creditsExpiry,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// NewUserRecord returns a default zero-valued record for first contact.
func NewUserRecord(now time.Time) *UserRecord {
	return &UserRecord{
		History:   []Interaction{},
		Usage:     Usage{Count: 0, LastReset: UTCDate(now)},
		CreatedAt: now.UTC(),
	}
}

// UTCDate formats a time as a UTC calendar date string.
func UTCDate(t time.Time) string {
	return t.UTC().Format(UTCDateFormat)
}

// EffectiveExtraCredits returns the usable bonus credit balance at the given
// instant. Credits are void at or after CreditsExpiry regardless of the stored
// value.
func (r *UserRecord) EffectiveExtraCredits(now time.Time) int {
	if r.ExtraCredits <= 0 {
		return 0
	}
	if r.CreditsExpiry != nil && !now.Before(*r.CreditsExpiry) {
		return 0
	}
	return r.ExtraCredits
}

// CreditsExpired reports whether a stored balance has outlived its expiry and
// should be zeroed on the next write.
func (r *UserRecord) CreditsExpired(now time.Time) bool {
	return r.ExtraCredits > 0 && r.CreditsExpiry != nil && !now.Before(*r.CreditsExpiry)
}

// LastInteraction returns the most recent history entry, or nil for an empty
// history.
func (r *UserRecord) LastInteraction() *Interaction {
	if len(r.History) == 0 {
		return nil
	}
	return &r.History[len(r.History)-1]
}
