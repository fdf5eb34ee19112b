package reposignal

import (
	"strings"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// classDistributionMinTotal gates the distribution rule: the total class
// count must exceed 5 before a skewed distribution says anything.
const classDistributionMinTotal = 5

// classDistributionThreshold is the 40% share the distribution rule requires.
const classDistributionThreshold = 0.4

// beClassKinds and feClassKinds split ComponentType values by role.
// Job-like classes fold into Worker; there is no dedicated store kind, so
// feClassKinds carries ViewController alone.
var beClassKinds = map[types.ComponentType]bool{
	types.ComponentTypeDataModel:  true,
	types.ComponentTypeController: true,
	types.ComponentTypeWorker:     true,
	types.ComponentTypeService:    true,
	types.ComponentTypeSerializer: true,
	types.ComponentTypeMiddleware: true,
}

var feClassKinds = map[types.ComponentType]bool{
	types.ComponentTypeViewController: true,
}

// roleSignals derives {backend, frontend}: backend if any BE framework is
// present, or the language is backend-leaning with no FE framework, or the
// class-type distribution skews BE; frontend is analogous.
func roleSignals(profile types.RepoProfile, classKinds []types.ComponentType) []string {
	hasFEFramework := false
	hasBEFramework := false
	for _, fw := range profile.Frameworks {
		if feFrameworks[fw] {
			hasFEFramework = true
		}
		if beFrameworks[fw] {
			hasBEFramework = true
		}
	}

	backend := hasBEFramework
	frontend := hasFEFramework

	if !backend && !hasFEFramework && backendLanguages[profile.PrimaryLanguage] {
		backend = true
	}

	if total := len(classKinds); total > classDistributionMinTotal {
		var beCount, feCount int
		for _, k := range classKinds {
			if beClassKinds[k] {
				beCount++
			}
			if feClassKinds[k] {
				feCount++
			}
		}
		if float64(beCount)/float64(total) >= classDistributionThreshold {
			backend = true
		}
		if float64(feCount)/float64(total) >= classDistributionThreshold {
			frontend = true
		}
	}

	var out []string
	if backend {
		out = append(out, "role:backend")
	}
	if frontend {
		out = append(out, "role:frontend")
	}
	return out
}

// repoNameTokens implements rule 6: repo-name tokens filtered by the
// generic-word stoplist.
func repoNameTokens(repoName string) []string {
	var tokens []string
	for _, part := range strings.FieldsFunc(repoName, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == '/'
	}) {
		lower := strings.ToLower(part)
		if len(lower) < 3 || stopwords[lower] {
			continue
		}
		tokens = append(tokens, lower)
	}
	return tokens
}
