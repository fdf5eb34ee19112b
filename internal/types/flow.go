package types

// Flow is a named subgraph of related files, either discovered by community
// detection or pinned from a seed.
type Flow struct {
	Name  string
	Files []string
	Repos []string
	IsHub bool
}

// SeedFlow pins a community before the modularity-optimization loop runs,
// e.g. a discovered FE page or component directory.
type SeedFlow struct {
	Name  string
	Files []string
}
