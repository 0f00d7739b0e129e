package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List registered events and the modules that declared them",
		RunE:  runEvents,
	}
}

func runEvents(cmd *cobra.Command, args []string) error {
	eng, logger, err := loadEngine()
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		return err
	}
	defer eng.Close()

	for _, name := range eng.Registry().Events() {
		info, _ := eng.Registry().EventInfo(name)
		line := fmt.Sprintf("%s  [%s]", info.Name, strings.Join(info.RegisteredBy, ", "))
		if info.Hook != "" {
			line += fmt.Sprintf("  hook=%s", info.Hook)
		}
		if info.Description != "" {
			line += fmt.Sprintf("  %s", info.Description)
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}
