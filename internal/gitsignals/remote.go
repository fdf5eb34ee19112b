package gitsignals

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// remoteFetchTimeout bounds FetchRemoteBranches.
const remoteFetchTimeout = 30 * time.Second

// RemoteBranch is one branch observed on a remote without cloning it.
type RemoteBranch struct {
	Name string
	Kind BranchKind
}

// FetchRemoteBranches lists branches on the repo's origin remote without
// mutating any local refs, for the opt-in remote epic-discovery
// feature. go-git's remote.List is used instead
// of shelling to "git fetch" because it never touches local refs or the
// working tree — a raw exec.CommandContext around "git fetch" would need
// extra bookkeeping to undo partial ref updates on cancellation, which this
// read-only discovery feature has no use for. The 30s bound is enforced
// around the call rather than inside go-git, which has no context-aware
// variant of List.
//
// All failures (no remote configured, offline, timeout) degrade to an
// empty result rather than propagating an error.
func (p *Provider) FetchRemoteBranches(ctx context.Context) []RemoteBranch {
	ctx, cancel := context.WithTimeout(ctx, remoteFetchTimeout)
	defer cancel()

	repo, err := git.PlainOpen(p.repoRoot)
	if err != nil {
		return nil
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return nil
	}

	// go-git's Remote.List has no native context parameter, so the 30s bound
	// is enforced here with a result channel rather than a fabricated
	// ListContext call.
	type listResult struct {
		refs []*plumbing.Reference
		err  error
	}
	resultCh := make(chan listResult, 1)
	go func() {
		refs, err := remote.List(&git.ListOptions{})
		resultCh <- listResult{refs: refs, err: err}
	}()

	var refs []*plumbing.Reference
	select {
	case <-ctx.Done():
		return nil
	case res := <-resultCh:
		if res.err != nil {
			return nil
		}
		refs = res.refs
	}

	var out []RemoteBranch
	for _, ref := range refs {
		if !ref.Name().IsBranch() {
			continue
		}
		name := ref.Name().Short()
		out = append(out, RemoteBranch{Name: name, Kind: ClassifyBranch(name)})
	}
	return out
}
