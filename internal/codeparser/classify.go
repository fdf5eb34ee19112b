package codeparser

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// componentNameRules maps class-name suffixes and path patterns to the
// component kinds the flow/model cards and the repo-signal role heuristic
// consume.
var componentNameRules = []struct {
	kind types.ComponentType
	re   *regexp.Regexp
}{
	{types.ComponentTypeAPIHandler, regexp.MustCompile(`(?i)(handler|controller|endpoint|resource)$`)},
	{types.ComponentTypeRepository, regexp.MustCompile(`(?i)(repository|repo|dao|store)$`)},
	{types.ComponentTypeService, regexp.MustCompile(`(?i)service$`)},
	{types.ComponentTypeViewController, regexp.MustCompile(`(?i)(component|view|template|widget)$`)},
	{types.ComponentTypeDataModel, regexp.MustCompile(`(?i)(model|entity|schema)$`)},
	{types.ComponentTypeMiddleware, regexp.MustCompile(`(?i)(middleware|interceptor|filter)$`)},
	{types.ComponentTypeValidator, regexp.MustCompile(`(?i)validator$`)},
	{types.ComponentTypeSerializer, regexp.MustCompile(`(?i)(serializer|marshaler)$`)},
	{types.ComponentTypeAuth, regexp.MustCompile(`(?i)(auth|authz|authn)`)},
	{types.ComponentTypeWorker, regexp.MustCompile(`(?i)(worker|job|queue)$`)},
}

var pathRoleRules = []struct {
	kind types.ComponentType
	re   *regexp.Regexp
}{
	{types.ComponentTypeTest, regexp.MustCompile(`(?i)(test|spec)`)},
	{types.ComponentTypeConfiguration, regexp.MustCompile(`(?i)(config|settings)`)},
	{types.ComponentTypeAPIHandler, regexp.MustCompile(`(?i)(handlers?|controllers?|routes?|api)/`)},
	{types.ComponentTypeRepository, regexp.MustCompile(`(?i)(repositor(y|ies)|dao)/`)},
	{types.ComponentTypeDataModel, regexp.MustCompile(`(?i)(models?|entities|schemas?)/`)},
}

// classifyComponentKind assigns a coarse ComponentType from a symbol name and
// its containing path, name rules taking priority over path rules.
func classifyComponentKind(name, path string) types.ComponentType {
	for _, r := range componentNameRules {
		if r.re.MatchString(name) {
			return r.kind
		}
	}
	for _, r := range pathRoleRules {
		if r.re.MatchString(path) {
			return r.kind
		}
	}
	return types.ComponentTypeUnknown
}

var modelSuffix = regexp.MustCompile(`(?i)(model|entity|schema|dto)$`)

// looksLikeModel flags a class as a data-model candidate for the Card
// Generator's model-card synthesis.
func looksLikeModel(name string) bool {
	return modelSuffix.MatchString(name)
}

// defaultIgnoreDirs lists the VCS/build/dependency directories the walker
// always skips.
var defaultIgnoreDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "dist": true,
	"build": true, "target": true, ".venv": true, "__pycache__": true,
	".idea": true, ".vscode": true, "bin": true, "obj": true,
}

// IgnoreConfig controls which directories and files ParseRepo skips.
type IgnoreConfig struct {
	ExtraDirs []string
}

func (c IgnoreConfig) ShouldSkipDir(name string) bool {
	if defaultIgnoreDirs[name] {
		return true
	}
	for _, d := range c.ExtraDirs {
		if d == name {
			return true
		}
	}
	return false
}

func (c IgnoreConfig) ShouldSkipFile(path string) bool {
	base := strings.ToLower(path)
	return strings.HasSuffix(base, ".min.js") || strings.HasSuffix(base, ".map")
}
