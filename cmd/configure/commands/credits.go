package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/realitypatch/realitypatch/internal/config"
	"github.com/realitypatch/realitypatch/internal/store"
)

// NewCreditsCmd creates the credits command group
func NewCreditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Manage bonus credits",
		Long:  "Grant and inspect expiring bonus credits for a session",
	}

	cmd.AddCommand(newCreditsGrantCmd())
	cmd.AddCommand(newCreditsShowCmd())

	return cmd
}

func newCreditsGrantCmd() *cobra.Command {
	var sessionID string
	var amount int
	var expiryHours int
	var pack string

	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant bonus credits to a session",
		Long:  "Grant expiring bonus credits, either from a configured pack or an explicit amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return fmt.Errorf("--session is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if pack != "" {
				packs, err := config.LoadCreditPacks(cfg.CreditPacksPath)
				if err != nil {
					return fmt.Errorf("failed to load credit packs: %w", err)
				}
				p, ok := packs[pack]
				if !ok {
					return fmt.Errorf("unknown credit pack %q", pack)
				}
				amount, expiryHours = p.Credits, p.ExpiryHours
			}

			if amount <= 0 {
				return fmt.Errorf("--amount must be positive (or use --pack)")
			}
			if expiryHours <= 0 {
				return fmt.Errorf("--expiry-hours must be positive (or use --pack)")
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

			expiry := time.Now().Add(time.Duration(expiryHours) * time.Hour).UTC()
			total, err := recordStore.AddCredits(ctx, sessionID, amount, expiry)
			if err != nil {
				return fmt.Errorf("failed to grant credits: %w", err)
			}

			fmt.Printf("Granted %d credits to session %s\n", amount, sessionID)
			fmt.Printf("New balance: %d (expires %s)\n", total, expiry.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to credit (required)")
	cmd.Flags().IntVar(&amount, "amount", 0, "Number of credits to grant")
	cmd.Flags().IntVar(&expiryHours, "expiry-hours", 0, "Hours until the credits expire")
	cmd.Flags().StringVar(&pack, "pack", "", "Configured credit pack name (overrides --amount/--expiry-hours)")

	return cmd
}

func newCreditsShowCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the credit balance for a session",
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
			fmt.Printf("Extra credits: %d\n", record.EffectiveExtraCredits(now))
			if record.CreditsExpiry != nil {
				fmt.Printf("Credits expire: %s\n", record.CreditsExpiry.Format(time.RFC3339))
			}
			fmt.Printf("Usage today: %d (last reset %s)\n", record.Usage.Count, record.Usage.LastReset)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to inspect (required)")

	return cmd
}
