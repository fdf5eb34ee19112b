package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/knowledge-engine/internal/rpc/httpapi"
	"github.com/standardbeagle/knowledge-engine/internal/rpc/mcp"
)

var serveMCPCommand = &cli.Command{
	Name:  "serve-mcp",
	Usage: "Start the MCP tool server over stdio",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "http",
			Usage: "Also serve the health/reindex-status JSON endpoints on this address (e.g. :8090)",
		},
	},
	Action: runServeMCPCommand,
}

func runServeMCPCommand(c *cli.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := mcp.NewServer(workspace)

	var httpSrv *httpapi.Server
	if addr := c.String("http"); addr != "" {
		httpSrv = httpapi.NewServer(workspace)
		if err := httpSrv.Start(addr); err != nil {
			return cli.Exit(fmt.Sprintf("failed to start http surface: %v", err), 1)
		}
		fmt.Fprintf(os.Stderr, "serving health/reindex-status over http on %s\n", addr)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() { errChan <- server.Serve(ctx) }()

	select {
	case err := <-errChan:
		shutdownHTTP(httpSrv)
		if err != nil {
			return cli.Exit(fmt.Sprintf("MCP server error: %v", err), 1)
		}
		return nil
	case sig := <-sigChan:
		fmt.Fprintf(os.Stderr, "received signal %v, shutting down\n", sig)
		cancel()
		shutdownHTTP(httpSrv)
		return nil
	}
}

func shutdownHTTP(httpSrv *httpapi.Server) {
	if httpSrv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}
