package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	knowerrors "github.com/standardbeagle/knowledge-engine/internal/errors"
)

var searchCommand = &cli.Command{
	Name:  "search",
	Usage: "Search the workspace's knowledge cards",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Max cards to return",
			Value: 5,
		},
		&cli.StringFlag{
			Name:  "branch",
			Usage: "Restrict results to cards valid on this branch",
		},
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Output as JSON",
		},
	},
	Action: runSearchCommand,
}

func runSearchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("usage: knowctl search <query>", 1)
	}
	query := c.Args().First()

	results, err := workspace.Search(context.Background(), query, c.Int("limit"), c.String("branch"))
	if err != nil {
		return cli.Exit(knowerrors.NewSearchError(query, err).Error(), 1)
	}

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No cards matched.")
		return nil
	}
	for _, r := range results {
		fmt.Printf("[%s] %.3f %s — %s\n", r.Source, r.Score, r.Card.ID, r.Card.Title)
	}
	return nil
}
