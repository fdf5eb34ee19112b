// Package flow implements flow detection: Louvain-style community
// detection over the workspace file graph, producing the Flow and SeedFlow
// groupings the Card Generator turns into flow cards.
package flow

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// hubShareThreshold and hubFanInSigma define the hub rule: a community is
// a hub if it touches more than 25% of all files, or if its
// fan-in is more than 3 standard deviations above the per-run mean.
const (
	hubShareThreshold = 0.25
	hubFanInSigma     = 3.0
	resolution        = 1.0
)

// weightedEdge is the undirected projection of a GraphEdge used by the
// modularity optimization loop; relation type is dropped since community
// detection treats import/call/association/inherits edges uniformly.
type weightedEdge struct {
	a, b   int
	weight float64
}

// Detect runs the community-detection pass over edges and returns one Flow
// per detected community, with seedFlows pinned as their own communities
// before the optimization loop runs. fileRepo maps each file
// path to its owning repo, used only to populate Flow.Repos.
func Detect(allFiles []string, edges []types.GraphEdge, seedFlows []types.SeedFlow, fileRepo map[string]string) []types.Flow {
	if len(allFiles) == 0 {
		return nil
	}

	idxOf := map[string]int{}
	for i, f := range allFiles {
		idxOf[f] = i
	}
	n := len(allFiles)

	weights := map[[2]int]float64{}
	addWeight := func(a, b int, w float64) {
		if a == b {
			return
		}
		key := [2]int{a, b}
		if a > b {
			key = [2]int{b, a}
		}
		weights[key] += w
	}
	for _, e := range edges {
		ai, aok := idxOf[e.SourceFile]
		bi, bok := idxOf[e.TargetFile]
		if !aok || !bok {
			continue
		}
		addWeight(ai, bi, 1.0)
	}

	var wedges []weightedEdge
	for k, w := range weights {
		wedges = append(wedges, weightedEdge{a: k[0], b: k[1], weight: w})
	}
	sort.Slice(wedges, func(i, j int) bool {
		if wedges[i].a != wedges[j].a {
			return wedges[i].a < wedges[j].a
		}
		return wedges[i].b < wedges[j].b
	})

	seed := deterministicSeed(wedges)
	rng := rand.New(rand.NewPCG(seed, seed))

	community := make([]int, n)
	for i := range community {
		community[i] = i
	}

	pinned := applySeedFlows(idxOf, seedFlows, community)

	louvainPass(n, wedges, community, pinned, rng)

	groups := map[int][]int{}
	for node, c := range community {
		groups[c] = append(groups[c], node)
	}

	fanIn := make([]int, n)
	for _, e := range wedges {
		fanIn[e.a]++
		fanIn[e.b]++
	}
	mean, stddev := meanStddev(fanIn)

	flowNames := seedFlowNames(seedFlows)

	var flows []types.Flow
	for c, nodes := range groups {
		sort.Ints(nodes)
		var files []string
		repoSet := map[string]bool{}
		for _, idx := range nodes {
			files = append(files, allFiles[idx])
			if r := fileRepo[allFiles[idx]]; r != "" {
				repoSet[r] = true
			}
		}
		var repos []string
		for r := range repoSet {
			repos = append(repos, r)
		}
		sort.Strings(repos)

		share := float64(len(nodes)) / float64(n)
		var nodeFanIn int
		for _, idx := range nodes {
			nodeFanIn += fanIn[idx]
		}
		isHub := share > hubShareThreshold || (stddev > 0 && float64(nodeFanIn)-mean > hubFanInSigma*stddev)

		name := flowNames[c]
		if name == "" {
			name = syntheticFlowName(files)
		}

		flows = append(flows, types.Flow{
			Name:  name,
			Files: files,
			Repos: repos,
			IsHub: isHub,
		})
	}

	sort.Slice(flows, func(i, j int) bool { return flows[i].Name < flows[j].Name })
	return flows
}

// applySeedFlows pins each seed flow's files into their own community id
// (negative, so they never collide with the default per-file ids) before
// the optimization loop runs, so pinned membership survives the general
// pass.
func applySeedFlows(idxOf map[string]int, seeds []types.SeedFlow, community []int) map[int]bool {
	pinned := map[int]bool{}
	for i, seed := range seeds {
		cid := -(i + 1)
		for _, f := range seed.Files {
			if idx, ok := idxOf[f]; ok {
				community[idx] = cid
				pinned[idx] = true
			}
		}
	}
	return pinned
}

func seedFlowNames(seeds []types.SeedFlow) map[int]string {
	names := map[int]string{}
	for i, s := range seeds {
		names[-(i+1)] = s.Name
	}
	return names
}

// louvainPass runs a single-level greedy modularity optimization: each
// unpinned node is (possibly repeatedly) moved into the neighboring
// community that most increases modularity, until no move improves it or a
// pass budget is exhausted. This is the single-level Louvain variant (no
// community aggregation/recursion), adequate at the file-graph scale this
// system operates at.
func louvainPass(n int, edges []weightedEdge, community []int, pinned map[int]bool, rng *rand.Rand) {
	adjacency := make([]map[int]float64, n)
	degree := make([]float64, n)
	totalWeight := 0.0
	for i := range adjacency {
		adjacency[i] = map[int]float64{}
	}
	for _, e := range edges {
		adjacency[e.a][e.b] += e.weight
		adjacency[e.b][e.a] += e.weight
		degree[e.a] += e.weight
		degree[e.b] += e.weight
		totalWeight += e.weight
	}
	if totalWeight == 0 {
		return
	}

	order := rng.Perm(n)
	const maxPasses = 10
	for pass := 0; pass < maxPasses; pass++ {
		improved := false
		for _, node := range order {
			if pinned[node] {
				continue
			}
			best := community[node]
			bestGain := 0.0
			neighborCommunities := map[int]float64{}
			for nb, w := range adjacency[node] {
				neighborCommunities[community[nb]] += w
			}
			// Candidate communities are visited in ascending id order so a
			// modularity-gain tie always resolves to the smallest community id,
			// rather than whichever id Go's randomized map iteration over
			// neighborCommunities happened to visit first — repeated runs over
			// the same edge set must produce identical partitions.
			candidates := make([]int, 0, len(neighborCommunities))
			for c := range neighborCommunities {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)
			for _, c := range candidates {
				if c == community[node] {
					continue
				}
				wTo := neighborCommunities[c]
				gain := wTo/totalWeight - degree[node]*communityDegree(community, degree, c)/(2*totalWeight*totalWeight)
				if gain > bestGain {
					bestGain = gain
					best = c
				}
			}
			if best != community[node] {
				community[node] = best
				improved = true
			}
		}
		if !improved {
			break
		}
	}
}

func communityDegree(community []int, degree []float64, c int) float64 {
	var sum float64
	for i, ci := range community {
		if ci == c {
			sum += degree[i]
		}
	}
	return sum
}

func meanStddev(values []int) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func deterministicSeed(edges []weightedEdge) uint64 {
	h := xxhash.New()
	for _, e := range edges {
		h.Write(encodeEdge(e))
	}
	return h.Sum64()
}

func putInt(buf []byte, v int) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func encodeEdge(e weightedEdge) []byte {
	buf := make([]byte, 16)
	putInt(buf[0:8], e.a)
	putInt(buf[8:16], e.b)
	return buf
}

func syntheticFlowName(files []string) string {
	if len(files) == 0 {
		return "unnamed-flow"
	}
	return files[0]
}
