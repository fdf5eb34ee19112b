package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/knowledge-engine/internal/orchestrator"
	"github.com/standardbeagle/knowledge-engine/internal/telemetry"
)

var indexCommand = &cli.Command{
	Name:  "index",
	Usage: "Run a full indexing pass over every registered repo",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "force-docs",
			Usage: "Regenerate every doc, not only stale ones",
		},
		&cli.StringFlag{
			Name:  "thermal-since",
			Usage: "git --since window for commit-frequency thermal scoring",
		},
		&cli.StringFlag{
			Name:  "telemetry-file",
			Usage: "opt-in: append one JSON run summary to this file after the run finishes",
		},
	},
	Action: runIndexCommand,
}

func runIndexCommand(c *cli.Context) error {
	ctx := context.Background()

	repos, err := workspace.RepoRefs(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load registered repos: %v", err), 1)
	}
	if len(repos) == 0 {
		return cli.Exit("no repos registered; run `knowctl repos register <name> <path>` first", 1)
	}

	opts := orchestrator.Options{
		LLM:                 workspace.LLM,
		ForceRegenerateDocs: c.Bool("force-docs"),
		ThermalSince:        c.String("thermal-since"),
	}
	if path := c.String("telemetry-file"); path != "" {
		opts.Telemetry = telemetry.NewFileSink(path)
	}

	report, err := orchestrator.Run(ctx, workspace.Store, workspace.Root, repos, opts)
	if err != nil {
		return cli.Exit(fmt.Sprintf("index run failed: %v", err), 1)
	}

	fmt.Printf("Parsed %d files · %d skipped · %d unparseable\n", report.FilesParsed, report.FilesSkipped, report.FilesUnparseable)
	fmt.Printf("Edges %d · flows %d · cards %d · embeddings %d\n", report.EdgesBuilt, report.FlowsDetected, report.CardsWritten, report.EmbeddingsWritten)
	if len(report.DocsRefreshed) > 0 {
		fmt.Printf("Docs refreshed: %v\n", report.DocsRefreshed)
	}

	if len(report.Errors) > 0 {
		for _, e := range report.Errors {
			fmt.Fprintf(c.App.ErrWriter, "error: %v\n", e)
		}
		return cli.Exit(fmt.Sprintf("%d unrecoverable per-repo failure(s)", len(report.Errors)), 2)
	}

	return nil
}
