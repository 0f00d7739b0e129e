package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func hooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hooks",
		Short: "List claimed hooks and the events they resolve to",
		RunE:  runHooks,
	}
}

func runHooks(cmd *cobra.Command, args []string) error {
	eng, logger, err := loadEngine()
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		return err
	}
	defer eng.Close()

	hooks := eng.Registry().Hooks()
	if len(hooks) == 0 {
		fmt.Fprintln(os.Stdout, "No hooks claimed.")
		return nil
	}
	for _, h := range hooks {
		fmt.Fprintf(os.Stdout, "%s -> %s  (module %s, tier %d)\n", h.Hook, h.Event, h.Module, h.Tier)
	}
	return nil
}
