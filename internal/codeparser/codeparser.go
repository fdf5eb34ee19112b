// Package codeparser implements the Parser component: it turns
// a repo root into a list of types.ParsedFile plus a workspace-wide set of
// detected framework tags. Card generation only needs
// classes/functions/associations/imports, so the symbol model stays small:
// one tree-sitter parser + capture query per extension, with a thin
// capture-handling layer on top.
package codeparser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"

	knowerrors "github.com/standardbeagle/knowledge-engine/internal/errors"
	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// languageSetup is one grammar + capture query, keyed by file extension.
type languageSetup struct {
	extensions []string
	language   string
	grammar    func() unsafe_ptr
	query      string
}

// unsafe_ptr avoids importing unsafe directly in this file's public surface;
// go-tree-sitter's Language() funcs return *tree_sitter.Language already, so
// this is just a readable alias for the function type below.
type unsafe_ptr = *tree_sitter.Language

var languageTable = []languageSetup{
	{
		extensions: []string{".go"},
		language:   "go",
		grammar:    func() unsafe_ptr { return tree_sitter.NewLanguage(tree_sitter_go.Language()) },
		query: `
			(function_declaration name: (identifier) @function.name) @function
			(method_declaration name: (field_identifier) @function.name) @function
			(type_declaration (type_spec name: (type_identifier) @class.name type: (struct_type))) @class
			(field_declaration type: (type_identifier) @assoc.name) @assoc
			(field_declaration type: (pointer_type (type_identifier) @assoc.name)) @assoc
			(import_spec path: (interpreted_string_literal) @import.source) @import
		`,
	},
	{
		extensions: []string{".js", ".jsx"},
		language:   "javascript",
		grammar:    func() unsafe_ptr { return tree_sitter.NewLanguage(tree_sitter_javascript.Language()) },
		query: `
			(function_declaration name: (identifier) @function.name) @function
			(method_definition name: (property_identifier) @function.name) @function
			(class_declaration name: (identifier) @class.name) @class
			(import_statement source: (string) @import.source) @import
		`,
	},
	{
		extensions: []string{".ts", ".tsx"},
		language:   "typescript",
		grammar:    func() unsafe_ptr { return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()) },
		query: `
			(function_declaration name: (identifier) @function.name) @function
			(method_definition name: (property_identifier) @function.name) @function
			(class_declaration name: (type_identifier) @class.name) @class
			(interface_declaration name: (type_identifier) @class.name) @class
			(import_statement source: (string) @import.source) @import
		`,
	},
	{
		extensions: []string{".py"},
		language:   "python",
		grammar:    func() unsafe_ptr { return tree_sitter.NewLanguage(tree_sitter_python.Language()) },
		query: `
			(function_definition name: (identifier) @function.name) @function
			(class_definition name: (identifier) @class.name) @class
			(import_from_statement module_name: (dotted_name) @import.source) @import
			(import_statement name: (dotted_name) @import.source) @import
		`,
	},
	{
		extensions: []string{".java"},
		language:   "java",
		grammar:    func() unsafe_ptr { return tree_sitter.NewLanguage(tree_sitter_java.Language()) },
		query: `
			(method_declaration name: (identifier) @function.name) @function
			(class_declaration name: (identifier) @class.name) @class
			(interface_declaration name: (identifier) @class.name) @class
			(field_declaration type: (type_identifier) @assoc.name) @assoc
			(import_declaration (scoped_identifier) @import.source) @import
		`,
	},
	{
		extensions: []string{".cs"},
		language:   "csharp",
		grammar:    func() unsafe_ptr { return tree_sitter.NewLanguage(tree_sitter_csharp.Language()) },
		query: `
			(method_declaration name: (identifier) @function.name) @function
			(class_declaration name: (identifier) @class.name) @class
			(interface_declaration name: (identifier) @class.name) @class
			(using_directive (qualified_name) @import.source) @import
			(using_directive (identifier) @import.source) @import
		`,
	},
	{
		extensions: []string{".rs"},
		language:   "rust",
		grammar:    func() unsafe_ptr { return tree_sitter.NewLanguage(tree_sitter_rust.Language()) },
		query: `
			(function_item name: (identifier) @function.name) @function
			(struct_item name: (type_identifier) @class.name) @class
			(use_declaration argument: (_) @import.source) @import
		`,
	},
	{
		extensions: []string{".php"},
		language:   "php",
		grammar:    func() unsafe_ptr { return tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP()) },
		query: `
			(function_definition name: (name) @function.name) @function
			(method_declaration name: (name) @function.name) @function
			(class_declaration name: (name) @class.name) @class
			(namespace_use_declaration) @import.source
		`,
	},
	{
		extensions: []string{".cpp", ".cc", ".hpp", ".h"},
		language:   "cpp",
		grammar:    func() unsafe_ptr { return tree_sitter.NewLanguage(tree_sitter_cpp.Language()) },
		query: `
			(function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
			(class_specifier name: (type_identifier) @class.name) @class
			(preproc_include path: (_) @import.source) @import
		`,
	},
	{
		extensions: []string{".zig"},
		language:   "zig",
		grammar:    func() unsafe_ptr { return tree_sitter.NewLanguage(tree_sitter_zig.Language()) },
		query: `
			(function_declaration name: (identifier) @function.name) @function
		`,
	},
}

// compiled holds a parsed grammar and compiled query for one extension.
type compiled struct {
	language string
	parser   *tree_sitter.Parser
	query    *tree_sitter.Query
}

// Parser lazily compiles grammars on first use of each extension — most
// repos only touch a handful of languages, so eagerly loading all ten
// grammars wastes startup time.
type Parser struct {
	mu       sync.Mutex
	compiled map[string]*compiled
}

func New() *Parser {
	return &Parser{compiled: map[string]*compiled{}}
}

func (p *Parser) forExtension(ext string) *compiled {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.compiled[ext]; ok {
		return c
	}
	for _, ls := range languageTable {
		for _, e := range ls.extensions {
			if e != ext {
				continue
			}
			lang := ls.grammar()
			parser := tree_sitter.NewParser()
			if err := parser.SetLanguage(lang); err != nil {
				p.compiled[ext] = nil
				return nil
			}
			query, _ := tree_sitter.NewQuery(lang, ls.query)
			c := &compiled{language: ls.language, parser: parser, query: query}
			for _, e2 := range ls.extensions {
				p.compiled[e2] = c
			}
			return c
		}
	}
	p.compiled[ext] = nil
	return nil
}

// ParseStats counts skipped/unparseable files. Unreadable or unparseable
// files are skipped and counted, never fatal.
type ParseStats struct {
	FilesSeen   int
	Skipped     int
	Unparseable int
	// Errors carries a typed IndexingError/ParseError for every
	// skipped or unparseable file, so callers that want file-level detail
	// (not just the counters above) have it; the orchestrator folds these
	// into its phase log via a MultiError.
	Errors []error
}

// ParseRepo walks repoRoot and parses every file matching the ignore
// configuration, returning per-file symbol projections plus the stats
// counter. It never returns an error for a single bad file — only for
// structural failures like an unreadable root.
func (p *Parser) ParseRepo(ctx context.Context, repoRoot, repoName string, ignore IgnoreConfig) ([]types.ParsedFile, ParseStats, error) {
	var stats ParseStats
	var files []types.ParsedFile

	err := filepath.WalkDir(repoRoot, func(path string, d os.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return nil // unreadable path: skip, not fatal
		}
		if d.IsDir() {
			if ignore.ShouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore.ShouldSkipFile(path) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		c := p.forExtension(ext)
		if c == nil {
			return nil // no grammar for this extension: not an error, just unsupported
		}

		stats.FilesSeen++
		fileID := types.FileID(stats.FilesSeen)
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			stats.Skipped++
			stats.Errors = append(stats.Errors,
				knowerrors.NewIndexingError("read_file", readErr).WithFile(fileID, path).WithRecoverable(true))
			return nil
		}

		pf, parseErr := p.parseFile(c, path, repoName, content)
		if parseErr != nil {
			stats.Unparseable++
			stats.Errors = append(stats.Errors,
				knowerrors.NewParseError(fileID, path, 0, 0, "", parseErr))
			return nil
		}
		files = append(files, pf)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk %s: %w", repoRoot, err)
	}
	return files, stats, nil
}

func (p *Parser) parseFile(c *compiled, path, repo string, content []byte) (types.ParsedFile, error) {
	tree := c.parser.Parse(content, nil)
	if tree == nil {
		return types.ParsedFile{}, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	pf := types.ParsedFile{
		Path:     path,
		Repo:     repo,
		Language: c.language,
		FileRole: classifyFileRole(path),
	}
	if c.query == nil {
		return pf, nil
	}

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()
	matches := qc.Matches(c.query, tree.RootNode(), content)
	captureNames := c.query.CaptureNames()

	for {
		match := matches.Next()
		if match == nil {
			break
		}
		// Capture names are "<kind>" for the whole node plus "<kind>.name" /
		// "<kind>.source" for the interesting child, so the kind is read off
		// the first dot-segment: an import match has no ".name" capture and
		// must not be skipped for lacking one.
		var name, source, kind string
		for _, cap := range match.Captures {
			cn := captureNames[cap.Index]
			base, suffix, _ := strings.Cut(cn, ".")
			if kind == "" {
				kind = base
			}
			text := string(content[cap.Node.StartByte():cap.Node.EndByte()])
			switch suffix {
			case "name":
				name = text
			case "source":
				source = text
			}
		}
		switch kind {
		case "function":
			if name == "" {
				continue
			}
			pf.Functions = append(pf.Functions, types.ParsedFunction{Name: name, IsExported: isExported(name)})
		case "class":
			if name == "" {
				continue
			}
			pf.Classes = append(pf.Classes, types.ParsedClass{
				Name:    name,
				Kind:    classifyComponentKind(name, path),
				IsModel: looksLikeModel(name),
			})
		case "assoc":
			if name == "" {
				continue
			}
			pf.Associations = append(pf.Associations, name)
		case "import":
			if imp := cleanImportText(source); imp != "" {
				pf.Imports = append(pf.Imports, imp)
			}
		}
	}
	pf.Associations = dedupeStrings(pf.Associations)
	pf.Imports = dedupeStrings(pf.Imports)
	attachRoutes(&pf, content)
	return pf, nil
}

// cleanImportText reduces a captured import node to the bare module/path
// string: quotes and angle brackets stripped, and statement-level captures
// (PHP use declarations) trimmed of their keyword and terminator.
func cleanImportText(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimSuffix(s, ";")
	for _, kw := range []string{"use ", "import ", "using "} {
		s = strings.TrimPrefix(s, kw)
	}
	if i := strings.Index(s, " as "); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "\"'<>")
	return strings.TrimSpace(s)
}

func dedupeStrings(in []string) []string {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func isExported(name string) bool {
	if name == "" {
		return false
	}
	r := rune(name[0])
	return r >= 'A' && r <= 'Z'
}

func classifyFileRole(path string) types.FileRole {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(base, "test") || strings.Contains(base, "spec"):
		return types.FileRoleTest
	case strings.HasSuffix(base, ".json") || strings.HasSuffix(base, ".yml") || strings.HasSuffix(base, ".yaml") || strings.HasSuffix(base, ".toml"):
		return types.FileRoleConfig
	case strings.HasSuffix(base, ".md"):
		return types.FileRoleDoc
	case strings.HasSuffix(base, ".css") || strings.HasSuffix(base, ".scss"):
		return types.FileRoleStyle
	default:
		return types.FileRoleSource
	}
}
