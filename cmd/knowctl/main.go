// Command knowctl is the CLI entrypoint for the knowledge engine:
// index, search, status, serve-mcp, repos, and config subcommands over one
// shared workspace store.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	knowerrors "github.com/standardbeagle/knowledge-engine/internal/errors"
	"github.com/standardbeagle/knowledge-engine/internal/rpc/mcp"
	"github.com/standardbeagle/knowledge-engine/internal/store"
	"github.com/standardbeagle/knowledge-engine/internal/version"
)

const defaultStorePath = ".knowctl/workspace.db"

var (
	workspace    *mcp.Workspace
	cleanupFuncs []func()
)

func openWorkspace(c *cli.Context) (*mcp.Workspace, error) {
	storePath := c.String("store")
	if err := os.MkdirAll(filepath.Dir(storePath), 0o755); err != nil {
		return nil, knowerrors.NewFileError("mkdir", filepath.Dir(storePath), err)
	}

	s, err := store.Open(storePath)
	if err != nil {
		return nil, knowerrors.NewFileError("open", storePath, err)
	}
	cleanupFuncs = append(cleanupFuncs, func() { _ = s.Close() })

	root := c.String("root")
	if root == "" {
		root = filepath.Dir(storePath)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	return mcp.NewWorkspace(s, nil, absRoot), nil
}

func main() {
	app := &cli.App{
		Name:    "knowctl",
		Usage:   "Index and query a workspace's knowledge cards",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "store",
				Aliases: []string{"s"},
				Usage:   "Path to the workspace store file",
				Value:   defaultStorePath,
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Workspace root directory used to resolve registered repo paths (defaults to the store's directory)",
			},
		},
		Commands: []*cli.Command{
			indexCommand,
			searchCommand,
			statusCommand,
			serveMCPCommand,
			reposCommand,
			configCommand,
		},
		Before: func(c *cli.Context) error {
			if c.Args().First() == "" {
				return nil
			}
			ws, err := openWorkspace(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			workspace = ws
			return nil
		},
	}

	defer func() {
		for _, cleanup := range cleanupFuncs {
			cleanup()
		}
	}()

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			fmt.Fprintln(os.Stderr, exitErr.Error())
			for _, cleanup := range cleanupFuncs {
				cleanup()
			}
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		for _, cleanup := range cleanupFuncs {
			cleanup()
		}
		os.Exit(1)
	}
}
