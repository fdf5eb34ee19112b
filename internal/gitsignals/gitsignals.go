// Package gitsignals implements Git Signals: thermal maps, stale
// directory detection, and branch classification derived from local git
// history, plus an opt-in remote epic-discovery addition.
package gitsignals

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// Provider wraps the system git binary — os/exec around system git rather
// than a Go git library, since these are simple, read-only local log
// queries.
type Provider struct {
	repoRoot string
}

func NewProvider(repoRoot string) (*Provider, error) {
	abs, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("invalid repo root: %w", err)
	}
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = abs
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %s", abs)
	}
	return &Provider{repoRoot: strings.TrimSpace(string(out))}, nil
}

// ThermalMap returns, for every file touched in the window, a [0,1] heat
// score normalized by the most-changed file's commit count, from one
// git log --since --name-only pass over the repo root.
func (p *Provider) ThermalMap(ctx context.Context, since string) (map[string]float64, error) {
	cmd := exec.CommandContext(ctx, "git", "log", "--since="+since, "--name-only", "--pretty=format:")
	cmd.Dir = p.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}

	counts := map[string]int{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		counts[line]++
	}

	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	if max == 0 {
		return map[string]float64{}, nil
	}

	thermal := make(map[string]float64, len(counts))
	for path, c := range counts {
		thermal[path] = float64(c) / float64(max)
	}
	return thermal, nil
}

// StaleDirs returns top-level directories absent from the thermal map —
// they had no commits in the window.
func StaleDirs(topLevelDirs []string, thermal map[string]float64) []string {
	touched := map[string]bool{}
	for path := range thermal {
		parts := strings.SplitN(filepath.ToSlash(path), "/", 2)
		if len(parts) > 0 {
			touched[parts[0]] = true
		}
	}
	var stale []string
	for _, dir := range topLevelDirs {
		if !touched[dir] {
			stale = append(stale, dir)
		}
	}
	return stale
}

// BranchKind is the coarse category a branch name is classified into.
type BranchKind string

const (
	BranchKindMain     BranchKind = "main"
	BranchKindRelease  BranchKind = "release"
	BranchKindFeature  BranchKind = "feature"
	BranchKindHotfix   BranchKind = "hotfix"
	BranchKindUnknown  BranchKind = "unknown"
)

// branchRules classifies a branch name by the first matching pattern.
var branchRules = []struct {
	kind BranchKind
	re   *regexp.Regexp
}{
	{BranchKindMain, regexp.MustCompile(`^(main|master|trunk)$`)},
	{BranchKindRelease, regexp.MustCompile(`(?i)^(release|rel)[-/]`)},
	{BranchKindHotfix, regexp.MustCompile(`(?i)^(hotfix|fix)[-/]`)},
	{BranchKindFeature, regexp.MustCompile(`(?i)^(feature|feat)[-/]`)},
}

// ClassifyBranch maps a branch name to its coarse kind.
func ClassifyBranch(name string) BranchKind {
	for _, r := range branchRules {
		if r.re.MatchString(name) {
			return r.kind
		}
	}
	return BranchKindUnknown
}

// CurrentBranch returns the checked-out branch name.
func (p *Provider) CurrentBranch(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = p.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
