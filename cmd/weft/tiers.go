package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func tiersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Show precedence tiers and the modules in each",
		RunE:  runTiers,
	}
}

func runTiers(cmd *cobra.Command, args []string) error {
	eng, logger, err := loadEngine()
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		return err
	}
	defer eng.Close()

	for _, t := range eng.Registry().Tiers() {
		fmt.Fprintf(os.Stdout, "tier %d: %s\n", t.Tier, strings.Join(t.Modules, ", "))
	}
	return nil
}
