package types

// EdgeRelation enumerates GraphEdge relation kinds.
type EdgeRelation string

const (
	RelationImport      EdgeRelation = "import"
	RelationCall        EdgeRelation = "call"
	RelationAPIEndpoint EdgeRelation = "api_endpoint"
	RelationAssociation EdgeRelation = "association"
	RelationInherits    EdgeRelation = "inherits"
)

// EndpointMetadata is the structured payload carried by api_endpoint edges.
type EndpointMetadata struct {
	Method string
	Route  string
}

// GraphEdge is a typed, workspace-relative edge between two files. Metadata
// is relation-specific; only api_endpoint populates Endpoint today.
type GraphEdge struct {
	SourceFile string
	TargetFile string
	Relation   EdgeRelation
	Repo       string
	Endpoint   *EndpointMetadata
}

// FileRole classifies a file's purpose, reused across the parser, stack
// profiler, and card generator.
type FileRole string

const (
	FileRoleSource FileRole = "source"
	FileRoleTest   FileRole = "test"
	FileRoleConfig FileRole = "config"
	FileRoleDoc    FileRole = "doc"
	FileRoleStyle  FileRole = "style"
)

// ParsedClass is a single class/struct/model symbol extracted by the parser,
// tagged with the coarse component kind the repo-signal role heuristic and
// the model-card selection both key off.
type ParsedClass struct {
	Name          string
	Kind          ComponentType
	Associations  []string // names of related classes
	IsModel       bool
}

// ParsedFunction is a function/method symbol extracted by the parser.
type ParsedFunction struct {
	Name       string
	IsExported bool
	Route      *EndpointMetadata // non-nil when this function is an HTTP handler
}

// ParsedFile is the parser's per-file output.
type ParsedFile struct {
	Path         string // absolute during parsing, relativised before persistence
	Repo         string
	Language     string
	FileRole     FileRole
	Classes      []ParsedClass
	Functions    []ParsedFunction
	Associations []string
	Imports      []string
	// RouteRefs are request paths this file's client code calls (fetch,
	// axios, http.Get). The graph builder pairs them with route-declaring
	// functions elsewhere to form api_endpoint edges.
	RouteRefs []string
}

// FileIndex is the persisted per-file row.
type FileIndex struct {
	Path       string
	Repo       string
	Branch     string
	FileRole   FileRole
	ParsedData []byte // compact JSON projection
	HeatScore  float64
}
