package patch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/realitypatch/realitypatch/internal/models"
	"github.com/realitypatch/realitypatch/internal/store"
)

// LegacyData is client-side state from the localStorage era, offered once for
// server-side migration.
type LegacyData struct {
	History       []models.Interaction `json:"history"`
	DailyUsage    *models.Usage        `json:"dailyUsage"`
	ExtraCredits  int                  `json:"extraCredits"`
	CreditsExpiry *time.Time           `json:"creditsExpiry"`
}

// MigrationSummary reports what was actually merged, per field.
type MigrationSummary struct {
	HistoryItems   int  `json:"historyItems"`
	ExtraCredits   int  `json:"extraCredits"`
	DailyUsage     int  `json:"dailyUsage"`
	CreditsSkipped bool `json:"creditsSkipped,omitempty"`
}

// Migrate merges legacy client data into the user record. Existing server
// data always wins: history is taken only when the server history is empty,
// credits only when the server balance is zero (prevents double-counting a
// re-sent migration), and the usage counter becomes the max of both when the
// legacy value is from the current UTC day.
func (s *Service) Migrate(ctx context.Context, sessionID string, legacy LegacyData) (*MigrationSummary, error) {
	now := time.Now()
	summary := &MigrationSummary{}

	record, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load user record: %w", err)
	}

	if len(legacy.History) > 0 && len(record.History) == 0 {
		record.History = append(record.History, legacy.History...)
		s.history.Prune(record)
		summary.HistoryItems = len(record.History)
	}

	if legacy.DailyUsage != nil && legacy.DailyUsage.Count > 0 {
		today := models.UTCDate(now)
		if legacy.DailyUsage.LastReset == today || record.Usage.LastReset == "" {
			if legacy.DailyUsage.Count > record.Usage.Count {
				record.Usage.Count = legacy.DailyUsage.Count
				summary.DailyUsage = legacy.DailyUsage.Count
			}
			record.Usage.LastReset = today
		}
	}

	if err := s.store.Save(ctx, sessionID, record); err != nil {
		return nil, fmt.Errorf("persist migrated record: %w", err)
	}

	// Credits go through the verified grant path rather than the plain save,
	// and only when the server side has none.
	if legacy.ExtraCredits > 0 {
		if record.EffectiveExtraCredits(now) > 0 {
			summary.CreditsSkipped = true
		} else if legacy.CreditsExpiry != nil && legacy.CreditsExpiry.After(now) {
			if _, err := s.store.AddCredits(ctx, sessionID, legacy.ExtraCredits, *legacy.CreditsExpiry); err != nil {
				if errors.Is(err, store.ErrVerifyFailed) {
					return nil, err
				}
				return nil, fmt.Errorf("migrate credits: %w", err)
			}
			summary.ExtraCredits = legacy.ExtraCredits
		}
	}

	return summary, nil
}
