package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testBinaryPath string

// TestMain builds the CLI binary once for all tests.
func TestMain(m *testing.M) {
	tempBinary := filepath.Join(os.TempDir(), "knowctl-test-"+fmt.Sprintf("%d", time.Now().UnixNano()))

	buildCmd := exec.Command("go", "build", "-o", tempBinary, ".")
	var buildOut bytes.Buffer
	buildCmd.Stdout = &buildOut
	buildCmd.Stderr = &buildOut
	if err := buildCmd.Run(); err != nil {
		fmt.Printf("Failed to build CLI for testing: %v\nBuild output: %s\n", err, buildOut.String())
		os.Exit(1)
	}
	testBinaryPath = tempBinary

	code := m.Run()
	os.Remove(testBinaryPath)
	os.Exit(code)
}

func runKnowctl(storePath string, args ...string) (string, int) {
	fullArgs := append([]string{"--store", storePath}, args...)
	cmd := exec.Command(testBinaryPath, fullArgs...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}
	return out.String(), exitCode
}

func setupTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repoPath := filepath.Join(dir, "billing-svc")
	require.NoError(t, os.MkdirAll(filepath.Join(repoPath, "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "go.mod"), []byte("module billing-svc\n\ngo 1.21\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "models", "invoice.go"), []byte(
		"package models\n\ntype Invoice struct {\n\tID string\n}\n"), 0o644))

	run := func(args ...string) {
		c := exec.Command("git", args...)
		c.Dir = repoPath
		out, err := c.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
	run("add", ".")
	run("commit", "-q", "-m", "initial")

	return repoPath
}

func TestReposRegisterListAndIndex(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "workspace.db")
	repoPath := setupTestRepo(t)

	out, code := runKnowctl(storePath, "repos", "register", "billing-svc", repoPath)
	require.Equal(t, 0, code, out)

	out, code = runKnowctl(storePath, "repos", "list")
	require.Equal(t, 0, code, out)
	require.Contains(t, out, "billing-svc")

	out, code = runKnowctl(storePath, "index")
	require.Equal(t, 0, code, out)
	require.Contains(t, out, "Parsed")
}

func TestIndexWithNoRegisteredReposExitsFatal(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "workspace.db")

	out, code := runKnowctl(storePath, "index")
	require.Equal(t, 1, code, out)
}

func TestSearchUsageErrorExitsOne(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "workspace.db")

	out, code := runKnowctl(storePath, "search")
	require.Equal(t, 1, code, out)
}

func TestConfigPutAndGetRoundTrip(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "workspace.db")

	out, code := runKnowctl(storePath, "config", "put", "max_hub_cards", "3")
	require.Equal(t, 0, code, out)

	out, code = runKnowctl(storePath, "config", "get")
	require.Equal(t, 0, code, out)
	require.Contains(t, out, "max_hub_cards=3")
}

func TestStatusReportsHealthBeforeAnyIndexRun(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "workspace.db")

	out, code := runKnowctl(storePath, "status")
	require.Equal(t, 0, code, out)
	require.Contains(t, out, "No reindex has run yet.")
}
