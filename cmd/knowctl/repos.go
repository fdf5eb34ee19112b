package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

var reposCommand = &cli.Command{
	Name:  "repos",
	Usage: "Manage the repos registered in this workspace",
	Subcommands: []*cli.Command{
		{
			Name:      "register",
			Usage:     "Register a repo and queue a reindex",
			ArgsUsage: "<name> <path>",
			Action:    runReposRegister,
		},
		{
			Name:      "unregister",
			Usage:     "Remove a repo from the registry",
			ArgsUsage: "<name>",
			Action:    runReposUnregister,
		},
		{
			Name:   "list",
			Usage:  "List every registered repo",
			Action: runReposList,
		},
	},
}

func runReposRegister(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: knowctl repos register <name> <path>", 1)
	}
	name, path := c.Args().Get(0), c.Args().Get(1)

	ctx := context.Background()
	reindexing, err := workspace.RegisterRepo(ctx, name, path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to register repo: %v", err), 1)
	}
	if !reindexing {
		fmt.Printf("registered %s\n", name)
		return nil
	}

	// RegisterRepo queues its reindex on a background goroutine (the same
	// path an MCP client's async call takes); a one-shot CLI invocation has
	// no long-lived process to poll it from afterwards, so wait for it to
	// finish here rather than exiting while it's still mid-run.
	fmt.Printf("registered %s; waiting for reindex to finish...\n", name)
	if err := waitForReindex(ctx, 30*time.Minute); err != nil {
		return cli.Exit(fmt.Sprintf("reindex did not finish: %v", err), 1)
	}
	fmt.Println("reindex complete")
	return nil
}

func waitForReindex(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		status, err := workspace.ReindexStatus(ctx)
		if err != nil {
			return err
		}
		if status != nil && (status.Status == "done" || status.Status == "error") {
			if status.Status == "error" {
				return fmt.Errorf("%s", status.Error)
			}
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("timed out after %s", timeout)
}

func runReposUnregister(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("usage: knowctl repos unregister <name>", 1)
	}
	name := c.Args().First()

	if err := workspace.UnregisterRepo(context.Background(), name); err != nil {
		return cli.Exit(fmt.Sprintf("failed to unregister repo: %v", err), 1)
	}
	fmt.Printf("unregistered %s\n", name)
	return nil
}

func runReposList(c *cli.Context) error {
	repos, err := workspace.ListRepos(context.Background())
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to list repos: %v", err), 1)
	}
	if len(repos) == 0 {
		fmt.Println("No repos registered.")
		return nil
	}
	for _, r := range repos {
		fmt.Printf("%s\t%s\n", r.Name, r.Path)
	}
	return nil
}
