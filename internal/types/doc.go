package types

import "time"

// DocType enumerates the ProjectDoc variants. String-tagged for the same
// reason as CardType: these values round-trip through SQL.
type DocType string

const (
	DocTypeReadme        DocType = "readme"
	DocTypeAbout         DocType = "about"
	DocTypeArchitecture  DocType = "architecture"
	DocTypeCodeStyle     DocType = "code_style"
	DocTypeRules         DocType = "rules"
	DocTypeStyles        DocType = "styles"
	DocTypePages         DocType = "pages"
	DocTypeBEOverview    DocType = "be_overview"
	DocTypeBusiness      DocType = "business"
	DocTypeProduct       DocType = "product"
	DocTypeCrossRepo     DocType = "cross_repo"
	DocTypeSpecialist    DocType = "specialist"
	DocTypeChangelog     DocType = "changelog"
	DocTypeMemory        DocType = "memory"
	DocTypeAPIContracts  DocType = "api_contracts"
)

// SignalDocTypes is the subset of docs the repo-signal generator reads when
// deriving cross-corpus domain terms.
var SignalDocTypes = []DocType{DocTypeAbout, DocTypeArchitecture, DocTypePages, DocTypeBEOverview}

// ProjectDoc is a generated or hand-authored per-repo document that feeds
// prompts and signals.
type ProjectDoc struct {
	Repo             string
	DocType          DocType
	Content          string
	SourceFilePaths  []string
	Stale            bool
	UpdatedAt        time.Time
}

// RepoProfile is the Stack Profiler's per-repo output.
type RepoProfile struct {
	Repo           string
	PrimaryLanguage string
	Frameworks     []string
	IsLambda       bool
	PackageManager string
	SkillIDs       []string
}

// SignalSource distinguishes derived signals from operator-locked ones.
type SignalSource string

const (
	SignalSourceDerived SignalSource = "derived"
	SignalSourceManual  SignalSource = "manual"
)

// RepoSignals is the Repo Signal Generator's persisted output.
type RepoSignals struct {
	Repo          string
	Signals       []string
	SignalSource  SignalSource
	Locked        bool
	GeneratedAt   time.Time
}

// Metric is an append-only row logged by the Hybrid Retriever.
type Metric struct {
	Query           string
	QueryEmbedding  []float32
	ResponseCards   []string
	ResponseTokens  int
	CacheHit        bool
	LatencyMS       int64
	Timestamp       time.Time
	Branch          string
	DevID           string
}
