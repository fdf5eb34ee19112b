// Package stackprofile derives per-repo stack identity:
// language/framework/package-manager/lambda detection from a repo root's
// manifest files, never from source ASTs.
package stackprofile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// manifestSignal pairs a manifest's presence with the language/package
// manager it implies.
type manifestSignal struct {
	file           string
	language       string
	packageManager string
}

var manifestSignals = []manifestSignal{
	{"go.mod", "go", "go modules"},
	{"package.json", "javascript", "npm"},
	{"yarn.lock", "javascript", "yarn"},
	{"pnpm-lock.yaml", "javascript", "pnpm"},
	{"Gemfile", "ruby", "bundler"},
	{"pyproject.toml", "python", "poetry"},
	{"requirements.txt", "python", "pip"},
	{"Cargo.toml", "rust", "cargo"},
	{"composer.json", "php", "composer"},
	{"pom.xml", "java", "maven"},
	{"build.gradle", "java", "gradle"},
	{"build.gradle.kts", "kotlin", "gradle"},
}

// Profile derives a RepoProfile for a single repo root.
func Profile(repoRoot, repoName string) types.RepoProfile {
	profile := types.RepoProfile{Repo: repoName}

	var presentManagers []string
	for _, sig := range manifestSignals {
		if !fileExists(filepath.Join(repoRoot, sig.file)) {
			continue
		}
		if profile.PrimaryLanguage == "" {
			profile.PrimaryLanguage = sig.language
		}
		presentManagers = append(presentManagers, sig.packageManager)
	}
	if len(presentManagers) > 0 {
		profile.PackageManager = presentManagers[0]
	}

	profile.Frameworks = detectFrameworks(repoRoot)
	profile.IsLambda = detectLambda(repoRoot)
	profile.SkillIDs = deriveSkillIDs(profile)

	return profile
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func detectFrameworks(repoRoot string) []string {
	var tags []string

	if mod := readGoMod(repoRoot); mod != nil {
		for _, req := range mod.Require {
			switch {
			case strings.Contains(req.Mod.Path, "gin-gonic/gin"):
				tags = append(tags, "gin")
			case strings.Contains(req.Mod.Path, "labstack/echo"):
				tags = append(tags, "echo")
			case strings.Contains(req.Mod.Path, "gorilla/mux"):
				tags = append(tags, "gorilla-mux")
			}
		}
	}

	if pkg := readPackageJSON(repoRoot); pkg != nil {
		for name := range mergedDeps(pkg) {
			switch name {
			case "react":
				tags = append(tags, "react")
			case "next":
				tags = append(tags, "nextjs")
			case "vue":
				tags = append(tags, "vue")
			case "@angular/core":
				tags = append(tags, "angular")
			case "express":
				tags = append(tags, "express")
			case "fastify":
				tags = append(tags, "fastify")
			}
		}
	}

	if toml := readTOMLManifest(repoRoot, "pyproject.toml"); toml != nil {
		if hasTOMLDependency(toml, "django") {
			tags = append(tags, "django")
		}
		if hasTOMLDependency(toml, "fastapi") {
			tags = append(tags, "fastapi")
		}
	}
	if req := readRequirementsTxt(repoRoot); req != "" {
		lower := strings.ToLower(req)
		if strings.Contains(lower, "django") {
			tags = append(tags, "django")
		}
		if strings.Contains(lower, "flask") {
			tags = append(tags, "flask")
		}
		if strings.Contains(lower, "fastapi") {
			tags = append(tags, "fastapi")
		}
	}

	if gemfile := readFileString(filepath.Join(repoRoot, "Gemfile")); gemfile != "" {
		if strings.Contains(gemfile, "rails") {
			tags = append(tags, "rails")
		}
		if strings.Contains(gemfile, "sinatra") {
			tags = append(tags, "sinatra")
		}
	}

	if composerHasDependency(repoRoot, "laravel/framework") {
		tags = append(tags, "laravel")
	}

	// pom.xml / build.gradle[.kts]: a plain line scan is enough to spot a
	// framework name in either manifest; neither format needs structural
	// parsing for that.
	for _, manifest := range []string{"pom.xml", "build.gradle", "build.gradle.kts"} {
		content := readFileString(filepath.Join(repoRoot, manifest))
		if content == "" {
			continue
		}
		if strings.Contains(content, "spring-boot") {
			tags = append(tags, "spring-boot")
		}
	}

	return dedupe(tags)
}

func readGoMod(repoRoot string) *modfile.File {
	data, err := os.ReadFile(filepath.Join(repoRoot, "go.mod"))
	if err != nil {
		return nil
	}
	mod, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		return nil
	}
	return mod
}

func readPackageJSON(repoRoot string) map[string]any {
	data, err := os.ReadFile(filepath.Join(repoRoot, "package.json"))
	if err != nil {
		return nil
	}
	var pkg map[string]any
	if json.Unmarshal(data, &pkg) != nil {
		return nil
	}
	return pkg
}

func mergedDeps(pkg map[string]any) map[string]bool {
	merged := map[string]bool{}
	for _, key := range []string{"dependencies", "devDependencies"} {
		deps, ok := pkg[key].(map[string]any)
		if !ok {
			continue
		}
		for name := range deps {
			merged[name] = true
		}
	}
	return merged
}

func composerHasDependency(repoRoot, name string) bool {
	data, err := os.ReadFile(filepath.Join(repoRoot, "composer.json"))
	if err != nil {
		return false
	}
	var composer struct {
		Require    map[string]string `json:"require"`
		RequireDev map[string]string `json:"require-dev"`
	}
	if json.Unmarshal(data, &composer) != nil {
		return false
	}
	_, ok1 := composer.Require[name]
	_, ok2 := composer.RequireDev[name]
	return ok1 || ok2
}

func readTOMLManifest(repoRoot, name string) map[string]any {
	if name == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(repoRoot, name))
	if err != nil {
		return nil
	}
	var parsed map[string]any
	if toml.Unmarshal(data, &parsed) != nil {
		return nil
	}
	return parsed
}

func hasTOMLDependency(parsed map[string]any, name string) bool {
	data, err := json.Marshal(parsed)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), name)
}

func readRequirementsTxt(repoRoot string) string {
	return readFileString(filepath.Join(repoRoot, "requirements.txt"))
}

func readFileString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// handlerGlobs and indexHandlerPattern cover lambda detection without
// source-AST scanning — file-glob and string-literal checks only.
var (
	handlerGlobs        = []string{"**/handler.*", "**/lambda_function.*", "**/*_handler.*"}
	indexHandlerPattern = regexp.MustCompile(`(?m)^\s*(func\s+Handler|exports\.handler\s*=|def\s+handler)\b`)
)

func detectLambda(repoRoot string) bool {
	for _, manifest := range []string{"serverless.yml", "serverless.yaml", "template.yaml", "template.yml"} {
		if looksLikeServerlessManifest(filepath.Join(repoRoot, manifest)) {
			return true
		}
	}

	for _, pattern := range handlerGlobs {
		matches, _ := doublestar.FilepathGlob(filepath.Join(repoRoot, pattern))
		if len(matches) > 0 {
			return true
		}
	}

	var found bool
	_ = filepath.WalkDir(repoRoot, func(path string, d os.DirEntry, err error) error {
		if found || err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".go" && ext != ".js" && ext != ".py" {
			return nil
		}
		content := readFileString(path)
		if indexHandlerPattern.MatchString(content) {
			found = true
		}
		return nil
	})
	return found
}

func looksLikeServerlessManifest(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]any
	if yaml.Unmarshal(data, &doc) != nil {
		return false
	}
	_, hasFunctions := doc["functions"]
	_, hasResources := doc["Resources"]
	return hasFunctions || hasResources
}

// deriveSkillIDs applies a deterministic rule table mapping detected
// language/frameworks to stable skill identifiers.
func deriveSkillIDs(p types.RepoProfile) []string {
	var ids []string
	if p.PrimaryLanguage != "" {
		ids = append(ids, "lang:"+p.PrimaryLanguage)
	}
	for _, fw := range p.Frameworks {
		ids = append(ids, "framework:"+fw)
	}
	if p.IsLambda {
		ids = append(ids, "deploy:lambda")
	}
	return ids
}
