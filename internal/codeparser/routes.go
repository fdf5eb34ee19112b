package codeparser

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// Route registrations and client-side route references are extracted with a
// regex rule table over file content rather than per-framework AST queries:
// registration idioms vary per framework far more than per language, and a
// string-level match is enough to pair a server route with the client code
// that calls it.

// routeDeclPattern matches one server-side route registration. method and
// handler are submatch indexes; 0 means the pattern has no such group and
// implied supplies the method instead.
type routeDeclPattern struct {
	re      *regexp.Regexp
	method  int
	path    int
	handler int
	implied string
}

var routeDeclPatterns = []routeDeclPattern{
	// gin/echo/chi style: r.GET("/users", ListUsers)
	{re: regexp.MustCompile(`\.(GET|POST|PUT|PATCH|DELETE)\(\s*"([^"]+)"(?:\s*,\s*([A-Za-z_][A-Za-z0-9_.]*))?`), method: 1, path: 2, handler: 3},
	// net/http: http.HandleFunc("/users", listUsers)
	{re: regexp.MustCompile(`HandleFunc\(\s*"([^"]+)"\s*,\s*([A-Za-z_][A-Za-z0-9_.]*)`), path: 1, handler: 2, implied: "GET"},
	// express: app.get('/users', listUsers)
	{re: regexp.MustCompile(`\b(?:app|router)\.(get|post|put|patch|delete)\(\s*['"]([^'"]+)['"](?:\s*,\s*([A-Za-z_$][A-Za-z0-9_.$]*))?`), method: 1, path: 2, handler: 3},
	// flask: @app.route("/users")
	{re: regexp.MustCompile(`@\w+\.route\(\s*['"]([^'"]+)['"]`), path: 1, implied: "GET"},
	// spring: @GetMapping("/users")
	{re: regexp.MustCompile(`@(Get|Post|Put|Patch|Delete)Mapping\(\s*(?:value\s*=\s*)?"([^"]+)"`), method: 1, path: 2},
	// laravel: Route::get('/users', ...)
	{re: regexp.MustCompile(`Route::(get|post|put|patch|delete)\(\s*['"]([^'"]+)['"]`), method: 1, path: 2},
}

// routeRefPatterns match client-side calls that reference a route by path.
var routeRefPatterns = []*regexp.Regexp{
	regexp.MustCompile("fetch\\(\\s*[`'\"]([^`'\"]+)[`'\"]"),
	regexp.MustCompile(`axios\.(?:get|post|put|patch|delete)\(\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`\bhttp\.(?:Get|Post)\(\s*"([^"]+)"`),
}

// attachRoutes scans content for route registrations and client route
// references, setting Route on the declaring function (matched by handler
// name when the registration names one) and filling RouteRefs.
func attachRoutes(pf *types.ParsedFile, content []byte) {
	text := string(content)

	for _, p := range routeDeclPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			route := normalizeRoutePath(m[p.path])
			if route == "" {
				continue
			}
			method := p.implied
			if p.method > 0 {
				method = strings.ToUpper(m[p.method])
			}
			handler := ""
			if p.handler > 0 {
				handler = m[p.handler]
			}
			addRoute(pf, method, route, handler)
		}
	}

	for _, re := range routeRefPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if ref := normalizeRoutePath(m[1]); ref != "" {
				pf.RouteRefs = append(pf.RouteRefs, ref)
			}
		}
	}
	pf.RouteRefs = dedupeStrings(pf.RouteRefs)
}

func addRoute(pf *types.ParsedFile, method, route, handler string) {
	ep := &types.EndpointMetadata{Method: method, Route: route}

	// Prefer attaching to the already-parsed handler function; a qualified
	// handler like api.ListUsers matches on its last segment.
	if handler != "" {
		short := handler
		if i := strings.LastIndex(handler, "."); i >= 0 {
			short = handler[i+1:]
		}
		for i := range pf.Functions {
			if pf.Functions[i].Name == short && pf.Functions[i].Route == nil {
				pf.Functions[i].Route = ep
				return
			}
		}
	}
	pf.Functions = append(pf.Functions, types.ParsedFunction{Name: handler, Route: ep})
}

// normalizeRoutePath reduces a raw matched string to a bare request path:
// scheme and host stripped off absolute URLs, query/fragment dropped,
// trailing slash removed. Returns "" for anything that isn't path-shaped.
func normalizeRoutePath(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "://"); i >= 0 {
		rest := s[i+3:]
		j := strings.Index(rest, "/")
		if j < 0 {
			return ""
		}
		s = rest[j:]
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if len(s) > 1 {
		s = strings.TrimSuffix(s, "/")
	}
	if !strings.HasPrefix(s, "/") {
		return ""
	}
	return s
}
