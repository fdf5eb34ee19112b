// Package card synthesizes knowledge cards: flow, model,
// cross-service, and hub cards from flows, parsed files, and graph edges.
package card

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/knowledge-engine/internal/encoding"
	"github.com/standardbeagle/knowledge-engine/internal/types"
)

const notableFilesLimit = 5

// cardID is a stable hash of flow + type + the primary file set, base-63
// encoded. Files are sorted so the id is independent of input order.
func cardID(flow string, cardType types.CardType, primaryFiles []string) string {
	sorted := append([]string(nil), primaryFiles...)
	sort.Strings(sorted)
	h := xxhash.New()
	h.Write([]byte(flow))
	h.Write([]byte("|"))
	h.Write([]byte(cardType))
	h.Write([]byte("|"))
	h.Write([]byte(strings.Join(sorted, ",")))
	return encoding.Base63Encode(h.Sum64())
}

// contentHash uniquely identifies a card's (title, content) pair.
func contentHash(title, content string) string {
	sum := sha256.Sum256([]byte(title + "\x00" + content))
	return hex.EncodeToString(sum[:])[:16]
}

// orderByHeat sorts files by descending thermal-map heat (ties keep their
// original relative order) so the hottest files win notable-file selection.
func orderByHeat(files []string, thermal map[string]float64) []string {
	if len(thermal) == 0 {
		return files
	}
	out := append([]string(nil), files...)
	sort.SliceStable(out, func(i, j int) bool {
		return thermal[out[i]] > thermal[out[j]]
	})
	return out
}

func notableFiles(files []string, thermal map[string]float64) []string {
	ordered := orderByHeat(files, thermal)
	if len(ordered) > notableFilesLimit {
		ordered = ordered[:notableFilesLimit]
	}
	return ordered
}

// identifiersFor flattens classes/functions from the given files into the
// flat symbol-token bag lexical search indexes.
func identifiersFor(files []types.ParsedFile, paths map[string]bool) []string {
	var ids []string
	for _, f := range files {
		if !paths[f.Path] {
			continue
		}
		for _, c := range f.Classes {
			ids = append(ids, c.Name)
		}
		for _, fn := range f.Functions {
			ids = append(ids, fn.Name)
		}
	}
	return dedupe(ids)
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func reposOf(files []types.ParsedFile, paths map[string]bool) []string {
	var repos []string
	for _, f := range files {
		if paths[f.Path] {
			repos = append(repos, f.Repo)
		}
	}
	return dedupe(repos)
}

func pathSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}
