// Package ledger implements the daily usage quota and bonus credit
// bookkeeping. Quota exhaustion is a normal decision outcome here, never an
// error: callers get a structured Allowance and decide what to render.
package ledger

import (
	"time"

	"github.com/realitypatch/realitypatch/internal/models"
)

// DefaultDailyLimit is the free request allowance per UTC calendar day.
const DefaultDailyLimit = 10

// Allowance is the result of a quota check.
type Allowance struct {
	Allowed      bool `json:"allowed"`
	UsingCredit  bool `json:"usingCredit"`
	Count        int  `json:"count"`
	Remaining    int  `json:"remaining"`
	Limit        int  `json:"limit"`
	ExtraCredits int  `json:"extraCredits"`
}

// CheckAllowance decides whether a new request is allowed and which budget it
// draws from. Read-only: the UTC-day reset is applied to the returned view,
// not the record — RecordRequest performs the actual reset on mutation.
func CheckAllowance(record *models.UserRecord, dailyLimit int, now time.Time) Allowance {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}

	count := record.Usage.Count
	if record.Usage.LastReset != models.UTCDate(now) {
		count = 0
	}

	credits := record.EffectiveExtraCredits(now)

	allowed := count < dailyLimit || credits > 0
	usingCredit := count >= dailyLimit && credits > 0

	remaining := dailyLimit - count
	if remaining < 0 {
		remaining = 0
	}

	return Allowance{
		Allowed:      allowed,
		UsingCredit:  usingCredit,
		Count:        count,
		Remaining:    remaining,
		Limit:        dailyLimit,
		ExtraCredits: credits,
	}
}

// RecordRequest applies the bookkeeping for one allowed request: increment the
// daily counter (resetting to 1 past a day boundary), or spend one credit when
// the request drew on the bonus budget. Expired credit balances are zeroed
// here as well, so the stored value converges with the effective one.
func RecordRequest(record *models.UserRecord, usingCredit bool, now time.Time) {
	if record.CreditsExpired(now) {
		record.ExtraCredits = 0
		record.CreditsExpiry = nil
	}

	if usingCredit {
		if record.ExtraCredits > 0 {
			record.ExtraCredits--
		}
		return
	}

	today := models.UTCDate(now)
	if record.Usage.LastReset != today {
		record.Usage.Count = 0
		record.Usage.LastReset = today
	}
	record.Usage.Count++
}

// ResetTime returns the next UTC day boundary after now, when the daily
// counter becomes zero again. Surfaced to callers rendering a "come back
// tomorrow" message.
func ResetTime(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
