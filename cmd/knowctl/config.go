package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	knowerrors "github.com/standardbeagle/knowledge-engine/internal/errors"
)

var configCommand = &cli.Command{
	Name:  "config",
	Usage: "Read or write workspace configuration keys",
	Subcommands: []*cli.Command{
		{
			Name:   "get",
			Usage:  "Print every config key and value",
			Action: runConfigGet,
		},
		{
			Name:      "put",
			Usage:     "Set a config key",
			ArgsUsage: "<key> <value>",
			Action:    runConfigPut,
		},
	},
}

func runConfigGet(c *cli.Context) error {
	cfg, err := workspace.GetConfig(context.Background())
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read config: %v", err), 1)
	}
	if len(cfg) == 0 {
		fmt.Println("No config set.")
		return nil
	}
	for k, v := range cfg {
		fmt.Printf("%s=%s\n", k, v)
	}
	return nil
}

func runConfigPut(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: knowctl config put <key> <value>", 1)
	}
	key, value := c.Args().Get(0), c.Args().Get(1)

	if err := workspace.PutConfig(context.Background(), map[string]string{key: value}); err != nil {
		return cli.Exit(knowerrors.NewConfigError(key, value, err).Error(), 1)
	}
	fmt.Printf("%s=%s\n", key, value)
	return nil
}
