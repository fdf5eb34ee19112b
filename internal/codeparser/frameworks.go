package codeparser

import (
	"os"
	"path/filepath"
	"strings"
)

// frameworkMarker pairs a manifest file with substrings that, if present in
// its contents, tag the repo with a framework name. Detection reads
// manifests only, never source.
type frameworkMarker struct {
	manifest string
	needle   string
	tag      string
}

var frameworkMarkers = []frameworkMarker{
	{"package.json", `"react"`, "react"},
	{"package.json", `"next"`, "nextjs"},
	{"package.json", `"vue"`, "vue"},
	{"package.json", `"@angular/core"`, "angular"},
	{"package.json", `"express"`, "express"},
	{"package.json", `"fastify"`, "fastify"},
	{"go.mod", "github.com/gin-gonic/gin", "gin"},
	{"go.mod", "github.com/labstack/echo", "echo"},
	{"go.mod", "github.com/gorilla/mux", "gorilla-mux"},
	{"Gemfile", "rails", "rails"},
	{"Gemfile", "sinatra", "sinatra"},
	{"requirements.txt", "django", "django"},
	{"requirements.txt", "flask", "flask"},
	{"requirements.txt", "fastapi", "fastapi"},
	{"pyproject.toml", "django", "django"},
	{"pyproject.toml", "fastapi", "fastapi"},
	{"pom.xml", "spring-boot", "spring-boot"},
	{"build.gradle", "spring-boot", "spring-boot"},
	{"composer.json", "laravel/framework", "laravel"},
}

// DetectFrameworkTags scans a repo root's top-level manifests once and
// returns the set of matched framework tags.
func DetectFrameworkTags(repoRoot string) []string {
	seen := map[string]bool{}
	cache := map[string]string{}

	readManifest := func(name string) (string, bool) {
		if content, ok := cache[name]; ok {
			return content, content != ""
		}
		data, err := os.ReadFile(filepath.Join(repoRoot, name))
		if err != nil {
			cache[name] = ""
			return "", false
		}
		cache[name] = string(data)
		return string(data), true
	}

	for _, m := range frameworkMarkers {
		content, ok := readManifest(m.manifest)
		if !ok {
			continue
		}
		if strings.Contains(content, m.needle) {
			seen[m.tag] = true
		}
	}

	var tags []string
	for tag := range seen {
		tags = append(tags, tag)
	}
	return tags
}
