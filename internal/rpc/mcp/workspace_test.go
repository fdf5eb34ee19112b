package mcp

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/knowledge-engine/internal/store"
)

func initGitRepo(t *testing.T, dir string) {
	t.Helper()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
	run("add", ".")
	run("commit", "-q", "-m", "initial")
}

func newTestWorkspaceDir(t *testing.T) (root string, repoPath string) {
	t.Helper()
	root = t.TempDir()
	repoPath = filepath.Join(root, "billing-svc")
	require.NoError(t, os.MkdirAll(filepath.Join(repoPath, "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "go.mod"), []byte("module billing-svc\n\ngo 1.21\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "models", "invoice.go"), []byte(
		"package models\n\ntype Invoice struct {\n\tID string\n}\n"), 0o644))
	initGitRepo(t, repoPath)
	return root, repoPath
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "workspace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// waitForIndexDone polls LatestIndexRun until it reports a terminal status,
// bounding how long a test waits on the background goroutine RegisterRepo/
// ReindexStale launch.
func waitForIndexDone(t *testing.T, s *store.Store, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		status, err := s.LatestIndexRun(context.Background())
		require.NoError(t, err)
		if status != nil && (status.Status == "done" || status.Status == "error") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for background reindex to finish")
}

func TestRegisterRepoQueuesReindexAndListReflectsIt(t *testing.T) {
	s := newTestStore(t)
	root, repoPath := newTestWorkspaceDir(t)
	ws := NewWorkspace(s, nil, root)
	ctx := context.Background()

	reindexing, err := ws.RegisterRepo(ctx, "billing-svc", repoPath)
	require.NoError(t, err)
	require.True(t, reindexing)

	repos, err := ws.ListRepos(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	require.Equal(t, "billing-svc", repos[0].Name)

	waitForIndexDone(t, s, 30*time.Second)

	health, err := ws.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Greater(t, health.Cards, 0)

	results, err := ws.Search(ctx, "Invoice", 5, "")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Greater(t, results[0].Score, 0.0)
	require.NotEmpty(t, results[0].Source)
}

func TestUnregisterRepoRemovesFromList(t *testing.T) {
	s := newTestStore(t)
	root, repoPath := newTestWorkspaceDir(t)
	ws := NewWorkspace(s, nil, root)
	ctx := context.Background()

	_, err := ws.RegisterRepo(ctx, "billing-svc", repoPath)
	require.NoError(t, err)
	waitForIndexDone(t, s, 30*time.Second)

	require.NoError(t, ws.UnregisterRepo(ctx, "billing-svc"))
	repos, err := ws.ListRepos(ctx)
	require.NoError(t, err)
	require.Empty(t, repos)
}

func TestConfigGetPutRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ws := NewWorkspace(s, nil, t.TempDir())
	ctx := context.Background()

	require.NoError(t, ws.PutConfig(ctx, map[string]string{"max_hub_cards": "3"}))
	cfg, err := ws.GetConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, "3", cfg["max_hub_cards"])
}

func TestReindexStaleReportsNothingToDoOnFreshWorkspace(t *testing.T) {
	s := newTestStore(t)
	ws := NewWorkspace(s, nil, t.TempDir())
	ctx := context.Background()

	result, err := ws.ReindexStale(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 0, result.StaleCount)
	require.False(t, result.Queued)
}

func TestReindexStatusIdleBeforeAnyRun(t *testing.T) {
	s := newTestStore(t)
	ws := NewWorkspace(s, nil, t.TempDir())

	status, err := ws.ReindexStatus(context.Background())
	require.NoError(t, err)
	require.Nil(t, status)
}

func TestRefreshOnEmptyWorkspaceReturnsNoOp(t *testing.T) {
	s := newTestStore(t)
	ws := NewWorkspace(s, nil, t.TempDir())

	result, err := ws.Refresh(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, result.Refreshed)
	require.Empty(t, result.Errors)
}
