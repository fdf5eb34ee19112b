package reposignal

// Static vocabulary tables. Plain Go map literals — the tables are small,
// change with code, and gain nothing from an external file format.

// languageSignals maps a RepoProfile.PrimaryLanguage to its static signal
// tokens.
var languageSignals = map[string][]string{
	"go":         {"lang:go", "compiled", "concurrent"},
	"javascript": {"lang:javascript", "dynamic", "web"},
	"typescript": {"lang:typescript", "typed", "web"},
	"python":     {"lang:python", "dynamic", "scripting"},
	"ruby":       {"lang:ruby", "dynamic", "web"},
	"java":       {"lang:java", "compiled", "jvm"},
	"kotlin":     {"lang:kotlin", "compiled", "jvm"},
	"rust":       {"lang:rust", "compiled", "systems"},
	"php":        {"lang:php", "dynamic", "web"},
}

// frameworkSignals maps a detected framework tag to signal tokens (rule 2).
var frameworkSignals = map[string][]string{
	"gin":         {"framework:gin", "http-server"},
	"echo":        {"framework:echo", "http-server"},
	"gorilla-mux": {"framework:gorilla-mux", "http-server"},
	"react":       {"framework:react", "spa", "component-tree"},
	"nextjs":      {"framework:nextjs", "ssr"},
	"vue":         {"framework:vue", "spa"},
	"angular":     {"framework:angular", "spa"},
	"express":     {"framework:express", "http-server"},
	"fastify":     {"framework:fastify", "http-server"},
	"django":      {"framework:django", "http-server", "orm"},
	"flask":       {"framework:flask", "http-server"},
	"fastapi":     {"framework:fastapi", "http-server"},
	"rails":       {"framework:rails", "http-server", "orm"},
	"sinatra":     {"framework:sinatra", "http-server"},
	"laravel":     {"framework:laravel", "http-server", "orm"},
	"spring-boot": {"framework:spring-boot", "http-server"},
}

// feFrameworks and beFrameworks classify detected frameworks for role rule 3a.
var feFrameworks = map[string]bool{
	"react": true, "nextjs": true, "vue": true, "angular": true,
}
var beFrameworks = map[string]bool{
	"gin": true, "echo": true, "gorilla-mux": true, "express": true,
	"fastify": true, "django": true, "flask": true, "fastapi": true,
	"rails": true, "sinatra": true, "laravel": true, "spring-boot": true,
}

// backendLanguages is rule 3b's language set.
var backendLanguages = map[string]bool{
	"ruby": true, "python": true, "go": true, "php": true, "rust": true, "java": true,
}

// stopwords is the generic-word stoplist for cross-corpus TF-IDF and for
// repo-name token filtering.
var stopwords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "into": true,
	"your": true, "have": true, "will": true, "each": true, "some": true,
	"these": true, "those": true, "their": true, "about": true, "which": true,
	"where": true, "there": true, "when": true, "than": true, "then": true,
	"been": true, "were": true, "they": true, "them": true, "also": true,
	"such": true, "only": true, "more": true, "most": true, "other": true,
	"using": true, "used": true, "uses": true, "provides": true, "provide": true,
	"application": true, "applications": true, "service": true, "services": true,
	"system": true, "systems": true, "user": true, "users": true,
	"data": true, "code": true, "file": true, "files": true, "repo": true,
	"repository": true, "project": true, "authentication": true,
}
