package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/knowledge-engine/internal/rpc/mcp"
	"github.com/standardbeagle/knowledge-engine/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "workspace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHealthEndpointReflectsEmptyWorkspace(t *testing.T) {
	s := newTestStore(t)
	ws := mcp.NewWorkspace(s, nil, t.TempDir())
	srv := NewServer(ws)
	require.NoError(t, srv.Start("127.0.0.1:0"))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, "ok", out["Status"])
}

func TestReindexStatusEndpointReportsIdleBeforeAnyRun(t *testing.T) {
	s := newTestStore(t)
	ws := mcp.NewWorkspace(s, nil, t.TempDir())
	srv := NewServer(ws)
	require.NoError(t, srv.Start("127.0.0.1:0"))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	resp, err := http.Get("http://" + srv.Addr() + "/reindex-status")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, "idle", out["status"])
}

func TestStartTwiceReturnsError(t *testing.T) {
	s := newTestStore(t)
	ws := mcp.NewWorkspace(s, nil, t.TempDir())
	srv := NewServer(ws)
	require.NoError(t, srv.Start("127.0.0.1:0"))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	require.Error(t, srv.Start("127.0.0.1:0"))
}
