package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jedharris/weft/internal/engine"
	"github.com/jedharris/weft/internal/server"
	"github.com/jedharris/weft/internal/world"
)

func playCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Start an interactive session over the loaded world",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(actor)
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "player", "actor id to play as")
	return cmd
}

func runPlay(actor string) error {
	eng, logger, err := loadEngine()
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		return err
	}
	defer eng.Close()

	if _, err := eng.State().Actor(world.ActorID(actor)); err != nil {
		return fmt.Errorf("actor %q is not in the loaded world", actor)
	}

	lc := server.NewLifecycle(logger)
	lc.Add("session", &server.FuncService{
		StartFn: func() error {
			repl(eng, world.ActorID(actor))
			return nil
		},
		StopFn: func() {},
	})
	return lc.Run(context.Background())
}

// repl reads one command per line until EOF or "quit".
func repl(eng *engine.Engine, actor world.ActorID) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stdout, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if line == "quit" || line == "exit" {
			return
		}
		if line != "" {
			fmt.Fprintln(os.Stdout, respond(eng, actor, line))
		}
		fmt.Fprint(os.Stdout, "> ")
	}
}

func respond(eng *engine.Engine, actor world.ActorID, line string) string {
	cmd, err := eng.ParseInput(actor, line)
	if err != nil {
		return err.Error()
	}
	res := eng.Dispatch(cmd)
	if res.Outcome.Message != "" {
		return res.Outcome.Message
	}
	return "Nothing happens."
}
