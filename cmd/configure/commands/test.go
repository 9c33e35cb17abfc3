package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/realitypatch/realitypatch/internal/config"
	"github.com/realitypatch/realitypatch/internal/services/ai"
	"github.com/realitypatch/realitypatch/internal/store"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var checkAI bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test backing service connectivity",
		Long:  "Test redis connectivity and optionally the AI provider",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if err := recordStore.Ping(ctx); err != nil {
				return fmt.Errorf("redis ping failed: %w", err)
			}
			fmt.Println("✓ Redis is reachable")

			if checkAI {
				provider := ai.NewOpenAIProvider(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
				reply, err := provider.GeneratePatch(ctx, "Connectivity check. Reply with one short sentence.")
				if err != nil {
					return fmt.Errorf("AI provider check failed: %w", err)
				}
				fmt.Printf("✓ AI provider responded (%d chars)\n", len(reply))
			}

			fmt.Println("\n✓ Connectivity test passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkAI, "ai", false, "Also issue a test completion against the AI provider")

	return cmd
}
