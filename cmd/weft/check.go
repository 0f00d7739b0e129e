package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load modules and content, reporting every diagnostic",
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	eng, logger, err := loadEngine()
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		diags := multierr.Errors(err)
		fmt.Fprintf(os.Stdout, "Load failed with %d diagnostic(s):\n", len(diags))
		for _, d := range diags {
			fmt.Fprintf(os.Stdout, "  - %s\n", d)
		}
		return fmt.Errorf("check found errors")
	}
	defer eng.Close()

	fmt.Fprintf(os.Stdout, "OK: %d module(s), %d event(s), %d word(s)\n",
		len(eng.Modules()),
		len(eng.Registry().Events()),
		eng.Vocabulary().Len(),
	)
	return nil
}
