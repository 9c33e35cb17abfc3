package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/realitypatch/realitypatch/internal/config"
	"github.com/realitypatch/realitypatch/internal/models"
	"github.com/realitypatch/realitypatch/internal/store"
)

// NewSessionCmd creates the session command group
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect session records",
	}

	cmd.AddCommand(newSessionShowCmd())

	return cmd
}

func newSessionShowCmd() *cobra.Command {
	var sessionID string
	var historyCount int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a session's record and recent history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return fmt.Errorf("--session is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			recordStore, err := store.NewRedisStore(cfg.RedisURL, cfg.DataRetentionDays, nil)
			if err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			defer func() {
				if err := recordStore.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close redis: %v\n", err)
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			record, err := recordStore.Get(ctx, sessionID)
			if err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}

			now := time.Now()
			fmt.Printf("Session: %s\n", sessionID)
			fmt.Printf("Created: %s\n", record.CreatedAt.Format(time.RFC3339))
			fmt.Printf("Interactions: %d\n", len(record.History))
			fmt.Printf("Usage today: %d (last reset %s)\n", record.Usage.Count, record.Usage.LastReset)
			fmt.Printf("Extra credits: %d\n", record.EffectiveExtraCredits(now))

			pending := models.PendingAssignments(record.History, len(record.History))
			fmt.Printf("Pending assignments: %d\n", len(pending))

			if historyCount > 0 && len(record.History) > 0 {
				start := len(record.History) - historyCount
				if start < 0 {
					start = 0
				}
				fmt.Println("\nRecent history:")
				for _, item := range record.History[start:] {
					status := ""
					if item.HasAssignment() {
						if item.Completed {
							status = " [assignment: done]"
						} else {
							status = " [assignment: pending]"
						}
					}
					fmt.Printf("  %s id=%d followUp=%t%s\n", item.Timestamp.Format(time.RFC3339), item.ID, item.IsFollowUp, status)
					fmt.Printf("    input: %s\n", truncate(item.Input, 80))
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to inspect (required)")
	cmd.Flags().IntVar(&historyCount, "history", 5, "How many recent interactions to print (0 to skip)")

	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
