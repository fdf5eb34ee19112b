package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var statusCommand = &cli.Command{
	Name:    "status",
	Aliases: []string{"st"},
	Usage:   "Show workspace health and the most recent reindex run",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Output as JSON",
		},
	},
	Action: runStatusCommand,
}

func runStatusCommand(c *cli.Context) error {
	ctx := context.Background()

	health, err := workspace.Health(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("health check failed: %v", err), 1)
	}
	run, err := workspace.ReindexStatus(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("reindex status failed: %v", err), 1)
	}

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"health": health,
			"run":    run,
		})
	}

	fmt.Printf("Status: %s · %d cards · %d flows\n", health.Status, health.Cards, health.Flows)
	if run == nil {
		fmt.Println("No reindex has run yet.")
		return nil
	}
	fmt.Printf("Last run %s: %s\n", run.RunID, run.Status)
	for _, line := range run.PhaseLog {
		fmt.Println("  " + line)
	}
	if run.Error != "" {
		fmt.Println("error: " + run.Error)
	}
	return nil
}
