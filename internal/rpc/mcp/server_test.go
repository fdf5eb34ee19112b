package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func callTool(ctx context.Context, t *testing.T, handler func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error), params any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)

	result, err := handler(ctx, &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: raw}})
	require.NoError(t, err)
	require.False(t, result.IsError, "unexpected tool error: %+v", result.Content)

	text := result.Content[0].(*mcp.TextContent).Text
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

func TestServerHealthToolReflectsEmptyWorkspace(t *testing.T) {
	s := newTestStore(t)
	ws := NewWorkspace(s, nil, t.TempDir())
	server := NewServer(ws)

	out := callTool(context.Background(), t, server.handleHealth, map[string]any{})
	require.Equal(t, "ok", out["Status"])
	require.Equal(t, float64(0), out["Cards"])
}

func TestServerRepoRegisterAndListRoundTrip(t *testing.T) {
	s := newTestStore(t)
	root, repoPath := newTestWorkspaceDir(t)
	ws := NewWorkspace(s, nil, root)
	server := NewServer(ws)
	ctx := context.Background()

	out := callTool(ctx, t, server.handleRepoRegister, repoRegisterParams{Name: "billing-svc", Path: repoPath})
	require.Equal(t, true, out["reindexing"])

	waitForIndexDone(t, s, 30*time.Second)

	raw, err := json.Marshal(map[string]any{})
	require.NoError(t, err)
	result, err := server.handleRepoList(ctx, &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: raw}})
	require.NoError(t, err)
	var repos []RepoEntry
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].(*mcp.TextContent).Text), &repos))
	require.Len(t, repos, 1)
	require.Equal(t, "billing-svc", repos[0].Name)
}

func TestServerSearchToolReturnsErrorResponseOnBadJSON(t *testing.T) {
	s := newTestStore(t)
	ws := NewWorkspace(s, nil, t.TempDir())
	server := NewServer(ws)

	result, err := server.handleSearch(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(`{"limit": "not-a-number"}`)},
	})
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestServerConfigPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ws := NewWorkspace(s, nil, t.TempDir())
	server := NewServer(ws)
	ctx := context.Background()

	callTool(ctx, t, server.handleConfigPut, configPutParams{Settings: map[string]string{"max_hub_cards": "4"}})
	out := callTool(ctx, t, server.handleConfigGet, map[string]any{})
	require.Equal(t, "4", out["max_hub_cards"])
}
