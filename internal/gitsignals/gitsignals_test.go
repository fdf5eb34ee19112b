package gitsignals

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "service"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "service", "hot.go"), []byte("package service"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "service", "hot.go"), []byte("package service\n// v2"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "touch hot file again")
	return dir
}

func TestThermalMapAndStaleDirs(t *testing.T) {
	dir := initTestRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cold"), 0o755))

	p, err := NewProvider(dir)
	require.NoError(t, err)

	thermal, err := p.ThermalMap(context.Background(), "10 years ago")
	require.NoError(t, err)
	require.Contains(t, thermal, "service/hot.go")
	require.Equal(t, 1.0, thermal["service/hot.go"])

	stale := StaleDirs([]string{"service", "cold"}, thermal)
	require.Equal(t, []string{"cold"}, stale)
}

func TestClassifyBranch(t *testing.T) {
	require.Equal(t, BranchKindMain, ClassifyBranch("main"))
	require.Equal(t, BranchKindRelease, ClassifyBranch("release/2.0"))
	require.Equal(t, BranchKindFeature, ClassifyBranch("feature/new-search"))
	require.Equal(t, BranchKindHotfix, ClassifyBranch("hotfix/crash"))
	require.Equal(t, BranchKindUnknown, ClassifyBranch("dave-scratch"))
}

func TestFetchRemoteBranchesNoRemoteDegradesEmpty(t *testing.T) {
	dir := initTestRepo(t)
	p, err := NewProvider(dir)
	require.NoError(t, err)

	branches := p.FetchRemoteBranches(context.Background())
	require.Empty(t, branches, "a repo with no origin remote must degrade to empty, not error")
}
