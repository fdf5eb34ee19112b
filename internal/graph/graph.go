// Package graph builds the workspace-wide dependency graph from
// the Parser's per-file output. BuildEdges is pure: it never touches the
// filesystem or the store, only the in-memory ParsedFile slice it is given.
package graph

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// fileArena assigns each distinct file path a dense integer id so edge
// dedup keys off small integers instead of repeated string comparisons.
type fileArena struct {
	idxOf map[string]int
	paths []string
}

func newFileArena() *fileArena {
	return &fileArena{idxOf: map[string]int{}}
}

func (a *fileArena) indexOf(path string) int {
	if idx, ok := a.idxOf[path]; ok {
		return idx
	}
	idx := len(a.paths)
	a.idxOf[path] = idx
	a.paths = append(a.paths, path)
	return idx
}

type edgeKey struct {
	src, dst int
	relation types.EdgeRelation
}

// BuildEdges derives GraphEdge entries from a parsed-file set. Paths are
// relativised against workspaceRoot at the function boundary — one
// filepath.Rel call per file, never repeated downstream.
// Edges are deduplicated on (source, target, relation) before emission.
func BuildEdges(files []types.ParsedFile, workspaceRoot string) []types.GraphEdge {
	arena := newFileArena()
	byPath := map[string]*types.ParsedFile{}
	classOwner := map[string]string{} // class name -> file path, for association resolution

	for i := range files {
		rel := relativize(workspaceRoot, files[i].Path)
		arena.indexOf(rel)
		byPath[rel] = &files[i]
		for _, c := range files[i].Classes {
			classOwner[c.Name] = rel
		}
	}

	seen := map[edgeKey]*types.GraphEdge{}
	emit := func(srcPath, dstPath string, relation types.EdgeRelation, repo string, endpoint *types.EndpointMetadata) {
		if srcPath == "" || dstPath == "" || srcPath == dstPath {
			return
		}
		key := edgeKey{arena.indexOf(srcPath), arena.indexOf(dstPath), relation}
		if existing, ok := seen[key]; ok {
			if endpoint != nil {
				existing.Endpoint = endpoint
			}
			return
		}
		seen[key] = &types.GraphEdge{
			SourceFile: srcPath,
			TargetFile: dstPath,
			Relation:   relation,
			Repo:       repo,
			Endpoint:   endpoint,
		}
	}

	// Route declarations collected first so client references anywhere in
	// the workspace can pair with them, including across repos.
	type routeDecl struct {
		file     string
		repo     string
		endpoint *types.EndpointMetadata
	}
	var decls []routeDecl

	for path, pf := range byPath {
		for _, imp := range pf.Imports {
			if target, ok := resolveImportTarget(imp, byPath); ok {
				emit(path, target, types.RelationImport, pf.Repo, nil)
			}
		}
		for _, assoc := range pf.Associations {
			if target, ok := classOwner[assoc]; ok {
				emit(path, target, types.RelationAssociation, pf.Repo, nil)
			}
		}
		for _, class := range pf.Classes {
			for _, assoc := range class.Associations {
				if target, ok := classOwner[assoc]; ok {
					emit(path, target, types.RelationAssociation, pf.Repo, nil)
				}
			}
		}
		for _, fn := range pf.Functions {
			if fn.Route != nil {
				decls = append(decls, routeDecl{file: path, repo: pf.Repo, endpoint: fn.Route})
			}
		}
	}

	// api_endpoint edges run from the declaring (server) file to each file
	// whose client code references the same path.
	for path, pf := range byPath {
		for _, ref := range pf.RouteRefs {
			for _, d := range decls {
				if d.file != path && routeMatches(d.endpoint.Route, ref) {
					emit(d.file, path, types.RelationAPIEndpoint, d.repo, d.endpoint)
				}
			}
		}
	}

	out := make([]types.GraphEdge, 0, len(seen))
	for _, e := range seen {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceFile != out[j].SourceFile {
			return out[i].SourceFile < out[j].SourceFile
		}
		if out[i].TargetFile != out[j].TargetFile {
			return out[i].TargetFile < out[j].TargetFile
		}
		return out[i].Relation < out[j].Relation
	})
	return out
}

func relativize(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// routeMatches compares a declared route against a client-referenced path.
// Parameter segments in the declaration (:id, {id}) match any single
// non-empty segment in the reference.
func routeMatches(decl, ref string) bool {
	if decl == ref {
		return true
	}
	if !strings.ContainsAny(decl, ":{") {
		return false
	}
	declSegs := strings.Split(decl, "/")
	refSegs := strings.Split(ref, "/")
	if len(declSegs) != len(refSegs) {
		return false
	}
	for i, ds := range declSegs {
		if strings.HasPrefix(ds, ":") || (strings.HasPrefix(ds, "{") && strings.HasSuffix(ds, "}")) {
			if refSegs[i] == "" {
				return false
			}
			continue
		}
		if ds != refSegs[i] {
			return false
		}
	}
	return true
}

// resolveImportTarget matches an import string against known files by
// suffix, the cheapest resolution that works across languages without a
// per-language module-resolution algorithm. File-style imports (JS/TS
// relative paths) match the file path minus extension; package-style
// imports (Go, Python) match the file's directory. When several files
// match, the longest path wins; equal-length matches resolve to the
// lexicographically smallest path so edge output is deterministic.
func resolveImportTarget(imp string, byPath map[string]*types.ParsedFile) (string, bool) {
	imp = strings.TrimPrefix(filepath.ToSlash(imp), "./")
	best := ""
	for path := range byPath {
		if !matchesImportSuffix(imp, path) {
			continue
		}
		if best == "" || len(path) > len(best) || (len(path) == len(best) && path < best) {
			best = path
		}
	}
	return best, best != ""
}

func matchesImportSuffix(imp, path string) bool {
	if imp == "" {
		return false
	}
	trimmed := path
	for _, ext := range []string{".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".java", ".cs", ".rs", ".php"} {
		if filepath.Ext(trimmed) == ext {
			trimmed = trimmed[:len(trimmed)-len(ext)]
			break
		}
	}
	if trimmed == imp || hasPathSuffix(trimmed, imp) {
		return true
	}
	dir := filepath.ToSlash(filepath.Dir(trimmed))
	return dir == imp || hasPathSuffix(dir, imp)
}

func hasPathSuffix(path, suffix string) bool {
	if len(suffix) > len(path) {
		return false
	}
	tail := path[len(path)-len(suffix):]
	return tail == suffix && (len(path) == len(suffix) || path[len(path)-len(suffix)-1] == '/')
}
