// Package reposignal derives per-repo signals: per-repo
// language/framework/role/lambda/domain/name signals derived from stack
// profiles, parsed class kinds, and generated docs, persisted via the Store
// with locked rows left untouched.
package reposignal

import (
	"time"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// RepoInput is one repo's inputs to signal generation, gathered by the
// orchestrator from C2 (parsed classes), C6 (stack profile), and the doc
// generation phase (§SignalDocTypes content).
type RepoInput struct {
	Repo       string
	Profile    types.RepoProfile
	ClassKinds []types.ComponentType
	DocText    string // concatenation of this repo's non-empty signal docs
}

// Generate derives RepoSignals for every repo in inputs. It is a pure
// function; callers persist the result via Store.UpsertRepoSignals, which
// itself honors locked rows.
func Generate(inputs []RepoInput, now time.Time) map[string]types.RepoSignals {
	docsByRepo := make(map[string]string, len(inputs))
	for _, in := range inputs {
		docsByRepo[in.Repo] = in.DocText
	}
	domain := domainTerms(docsByRepo)

	out := make(map[string]types.RepoSignals, len(inputs))
	for _, in := range inputs {
		var signals []string

		if langSigs, ok := languageSignals[in.Profile.PrimaryLanguage]; ok {
			signals = append(signals, langSigs...)
		}
		for _, fw := range in.Profile.Frameworks {
			signals = append(signals, frameworkSignals[fw]...)
		}
		signals = append(signals, roleSignals(in.Profile, in.ClassKinds)...)
		if in.Profile.IsLambda {
			signals = append(signals, "lambda")
		}
		signals = append(signals, domain[in.Repo]...)
		signals = append(signals, repoNameTokens(in.Repo)...)

		out[in.Repo] = types.RepoSignals{
			Repo:         in.Repo,
			Signals:      dedupeSignals(signals),
			SignalSource: types.SignalSourceDerived,
			Locked:       false,
			GeneratedAt:  now,
		}
	}
	return out
}

func dedupeSignals(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
