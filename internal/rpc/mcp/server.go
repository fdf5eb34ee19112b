package mcp

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wires a Workspace to the MCP tool set.
type Server struct {
	ws     *Workspace
	server *mcp.Server
}

func NewServer(ws *Workspace) *Server {
	s := &Server{ws: ws}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "knowledge-engine-mcp-server",
		Version: "0.1.0",
	}, nil)
	s.registerTools()
	return s
}

// Serve blocks, speaking MCP over stdio.
func (s *Server) Serve(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "sync",
		Description: "Report a file-change event for one repo. Invalidates affected cards/docs and, for merge/pull events, queues a workspace reindex.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"repo":        {Type: "string", Description: "Registered repo name"},
				"branch":      {Type: "string", Description: "Branch the event happened on"},
				"commit_sha":  {Type: "string", Description: "Commit SHA, if known"},
				"event_type":  {Type: "string", Description: "One of: save, merge, pull, rebase"},
				"dev_id":      {Type: "string", Description: "Opaque developer identifier for per-dev usage accounting"},
				"changed_files": {
					Type: "array",
					Items: &jsonschema.Schema{
						Type: "object",
						Properties: map[string]*jsonschema.Schema{
							"path":   {Type: "string"},
							"status": {Type: "string", Description: "One of: added, modified, deleted"},
						},
						Required: []string{"path", "status"},
					},
				},
			},
			Required: []string{"repo", "event_type"},
		},
	}, s.handleSync)

	s.server.AddTool(&mcp.Tool{
		Name:        "search",
		Description: "Hybrid lexical+dense search over generated knowledge cards. Returns cards ranked by fused score with their source leg (semantic, keyword, or both).",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query":  {Type: "string", Description: "Free-text query"},
				"limit":  {Type: "integer", Description: "Max cards to return (default 5)"},
				"branch": {Type: "string", Description: "Restrict to cards valid on this branch"},
			},
			Required: []string{"query"},
		},
	}, s.handleSearch)

	s.server.AddTool(&mcp.Tool{
		Name:        "health",
		Description: "Report workspace status and card/flow counts.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleHealth)

	s.server.AddTool(&mcp.Tool{
		Name:        "repos.register",
		Description: "Register a repo (name, absolute path) in this workspace and queue a reindex.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name": {Type: "string"},
				"path": {Type: "string", Description: "Absolute filesystem path to the repo"},
			},
			Required: []string{"name", "path"},
		},
	}, s.handleRepoRegister)

	s.server.AddTool(&mcp.Tool{
		Name:        "repos.unregister",
		Description: "Remove a repo from this workspace's registry.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name": {Type: "string"},
			},
			Required: []string{"name"},
		},
	}, s.handleRepoUnregister)

	s.server.AddTool(&mcp.Tool{
		Name:        "repos.list",
		Description: "List every repo registered in this workspace.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleRepoList)

	s.server.AddTool(&mcp.Tool{
		Name:        "refresh",
		Description: "Regenerate stale docs only, optionally scoped to one repo.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"repo": {Type: "string", Description: "Repo name; omit to refresh every repo"},
			},
		},
	}, s.handleRefresh)

	s.server.AddTool(&mcp.Tool{
		Name:        "reindex-stale",
		Description: "Queue a workspace reindex if any cards or docs are currently stale.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"repo": {Type: "string", Description: "Repo name to scope the stale count to; omit for the whole workspace"},
			},
		},
	}, s.handleReindexStale)

	s.server.AddTool(&mcp.Tool{
		Name:        "reindex-status",
		Description: "Report the most recent reindex run's status, phase log, and error (if any).",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleReindexStatus)

	s.server.AddTool(&mcp.Tool{
		Name:        "config.get",
		Description: "Read the full workspace config as a {key: value} map.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleConfigGet)

	s.server.AddTool(&mcp.Tool{
		Name:        "config.put",
		Description: "Merge the given {key: value} settings into the workspace config.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"settings": {
					Type:        "object",
					Description: "Arbitrary {key: value} string settings to merge; see the config key table for recognised keys",
				},
			},
			Required: []string{"settings"},
		},
	}, s.handleConfigPut)
}

func (s *Server) handleSync(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p syncParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("sync", err)
	}
	changed := make([]ChangedFile, len(p.ChangedFiles))
	for i, f := range p.ChangedFiles {
		changed[i] = ChangedFile{Path: f.Path, Status: f.Status}
	}
	result, err := s.ws.Sync(ctx, p.Repo, p.EventType, changed)
	if err != nil {
		return createErrorResponse("sync", err)
	}
	return createJSONResponse(map[string]any{
		"indexed":     result.Indexed,
		"invalidated": result.Invalidated,
	})
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p searchParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("search", err)
	}
	results, err := s.ws.Search(ctx, p.Query, p.Limit, p.Branch)
	if err != nil {
		return createErrorResponse("search", err)
	}
	return createJSONResponse(results)
}

func (s *Server) handleHealth(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.ws.Health(ctx)
	if err != nil {
		return createErrorResponse("health", err)
	}
	return createJSONResponse(result)
}

func (s *Server) handleRepoRegister(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p repoRegisterParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("repos.register", err)
	}
	reindexing, err := s.ws.RegisterRepo(ctx, p.Name, p.Path)
	if err != nil {
		return createErrorResponse("repos.register", err)
	}
	return createJSONResponse(map[string]any{"reindexing": reindexing})
}

func (s *Server) handleRepoUnregister(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p repoUnregisterParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("repos.unregister", err)
	}
	if err := s.ws.UnregisterRepo(ctx, p.Name); err != nil {
		return createErrorResponse("repos.unregister", err)
	}
	return createJSONResponse(map[string]any{"success": true})
}

func (s *Server) handleRepoList(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repos, err := s.ws.ListRepos(ctx)
	if err != nil {
		return createErrorResponse("repos.list", err)
	}
	return createJSONResponse(repos)
}

func (s *Server) handleRefresh(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p refreshParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("refresh", err)
	}
	result, err := s.ws.Refresh(ctx, p.Repo)
	if err != nil {
		return createErrorResponse("refresh", err)
	}
	return createJSONResponse(result)
}

func (s *Server) handleReindexStale(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p reindexStaleParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("reindex-stale", err)
	}
	result, err := s.ws.ReindexStale(ctx, p.Repo)
	if err != nil {
		return createErrorResponse("reindex-stale", err)
	}
	return createJSONResponse(result)
}

func (s *Server) handleReindexStatus(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.ws.ReindexStatus(ctx)
	if err != nil {
		return createErrorResponse("reindex-status", err)
	}
	if status == nil {
		return createJSONResponse(map[string]any{"status": "idle"})
	}
	return createJSONResponse(status)
}

func (s *Server) handleConfigGet(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := s.ws.GetConfig(ctx)
	if err != nil {
		return createErrorResponse("config.get", err)
	}
	return createJSONResponse(cfg)
}

func (s *Server) handleConfigPut(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p configPutParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("config.put", err)
	}
	if err := s.ws.PutConfig(ctx, p.Settings); err != nil {
		return createErrorResponse("config.put", err)
	}
	return createJSONResponse(map[string]any{"success": true})
}
