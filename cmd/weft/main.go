package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "weft",
		Short: "Module-based interactive world engine",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	root.AddCommand(checkCmd())
	root.AddCommand(eventsCmd())
	root.AddCommand(hooksCmd())
	root.AddCommand(tiersCmd())
	root.AddCommand(vocabCmd())
	root.AddCommand(playCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
