package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/realitypatch/realitypatch/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "realitypatch-configure",
		Short: "Operations tool for the RealityPatch API",
		Long:  "CLI tool for granting credits, inspecting sessions and testing connectivity",
	}

	rootCmd.AddCommand(commands.NewCreditsCmd())
	rootCmd.AddCommand(commands.NewSessionCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
