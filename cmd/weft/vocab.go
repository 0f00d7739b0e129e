package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func vocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab [word]",
		Short: "List the merged vocabulary, or look up one word",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runVocab,
	}
}

func runVocab(cmd *cobra.Command, args []string) error {
	eng, logger, err := loadEngine()
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		return err
	}
	defer eng.Close()

	if len(args) == 1 {
		entry, ok := eng.Vocabulary().Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown word %q", args[0])
		}
		fmt.Fprintf(os.Stdout, "%s  %s", entry.Word, entry.Roles)
		if len(entry.Synonyms) > 0 {
			fmt.Fprintf(os.Stdout, "  synonyms: %s", strings.Join(entry.Synonyms, ", "))
		}
		fmt.Fprintln(os.Stdout)
		return nil
	}

	for _, word := range eng.Vocabulary().Words() {
		entry, _ := eng.Vocabulary().Lookup(word)
		fmt.Fprintf(os.Stdout, "%s  %s\n", entry.Word, entry.Roles)
	}
	return nil
}
