package orchestrator

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/knowledge-engine/internal/store"
	"github.com/standardbeagle/knowledge-engine/internal/types"
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

func newTestWorkspace(t *testing.T) (workspaceRoot string, repos []RepoRef) {
	t.Helper()
	root := t.TempDir()

	svcDir := filepath.Join(root, "billing-svc")
	require.NoError(t, os.MkdirAll(filepath.Join(svcDir, "models"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(svcDir, "service"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(svcDir, "go.mod"), []byte("module billing-svc\n\ngo 1.21\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(svcDir, "models", "invoice.go"), []byte(
		"package models\n\ntype Invoice struct {\n\tID string\n}\n"), 0o644))
	// service/billing.go imports the models package and registers a route, so
	// an index run produces import and api_endpoint edges, not just isolated
	// files.
	require.NoError(t, os.WriteFile(filepath.Join(svcDir, "service", "billing.go"), []byte(
		"package service\n\nimport \"billing-svc/models\"\n\nfunc ListInvoices() []models.Invoice {\n\treturn nil\n}\n\nfunc Register(r Router) {\n\tr.GET(\"/billing\", ListInvoices)\n}\n"), 0o644))
	initGitRepo(t, svcDir)

	webDir := filepath.Join(root, "web-app")
	require.NoError(t, os.MkdirAll(webDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "go.mod"), []byte("module web-app\n\ngo 1.21\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "main.go"), []byte(
		"package main\n\nimport \"net/http\"\n\nfunc main() {\n\t_, _ = http.Get(\"/billing\")\n}\n"), 0o644))
	initGitRepo(t, webDir)

	return root, []RepoRef{
		{Name: "billing-svc", Path: svcDir},
		{Name: "web-app", Path: webDir},
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "workspace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunIndexesBothReposEndToEnd(t *testing.T) {
	s := newTestStore(t)
	root, repos := newTestWorkspace(t)
	ctx := context.Background()

	rep, err := Run(ctx, s, root, repos, Options{})
	require.NoError(t, err)

	require.Greater(t, rep.FilesParsed, 0)
	require.Greater(t, rep.EdgesBuilt, 0, "real parsed source must yield graph edges")
	require.Greater(t, rep.FlowsDetected, 0)
	require.Greater(t, rep.CardsWritten, 0)
	require.Equal(t, rep.CardsWritten, rep.EmbeddingsWritten)
	require.Greater(t, rep.FilesIndexed, 0)
	require.NotEmpty(t, rep.DocsRefreshed)
	require.Empty(t, rep.Errors)

	// The import edge must merge service/billing.go and models/invoice.go
	// into one community rather than leaving every file its own flow.
	require.Less(t, rep.FlowsDetected, rep.FilesParsed)

	edges, err := s.EdgesByRelation(ctx, types.RelationAPIEndpoint)
	require.NoError(t, err)
	require.NotEmpty(t, edges, "route declaration + client reference must produce an api_endpoint edge")
	require.Equal(t, "billing-svc/service/billing.go", edges[0].SourceFile)
	require.Equal(t, "web-app/main.go", edges[0].TargetFile)

	crossCards, err := s.CardsByTypeWithFile(ctx, types.CardTypeCrossService, "web-app/main.go")
	require.NoError(t, err)
	require.NotEmpty(t, crossCards, "repos joined by an api_endpoint edge must get a cross_service card")

	docs, err := s.DocsForRepo(ctx, "billing-svc")
	require.NoError(t, err)
	require.NotEmpty(t, docs)

	files, err := s.FilesForRepo(ctx, "billing-svc")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	hits, err := s.LexicalSearch(ctx, "Invoice", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	s := newTestStore(t)
	root, repos := newTestWorkspace(t)
	ctx := context.Background()

	acquired, err := s.AcquireRunLock(ctx, "already-running")
	require.NoError(t, err)
	require.True(t, acquired)

	_, err = Run(ctx, s, root, repos, Options{})
	require.Error(t, err)
}

func TestRunIsIdempotentOnSecondPass(t *testing.T) {
	s := newTestStore(t)
	root, repos := newTestWorkspace(t)
	ctx := context.Background()

	first, err := Run(ctx, s, root, repos, Options{})
	require.NoError(t, err)

	second, err := Run(ctx, s, root, repos, Options{})
	require.NoError(t, err)

	require.Equal(t, first.CardsWritten, second.CardsWritten)
	require.Equal(t, first.FilesIndexed, second.FilesIndexed)

	status, err := s.LatestIndexRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, "done", status.Status)
	require.NotEmpty(t, status.PhaseLog)
}
