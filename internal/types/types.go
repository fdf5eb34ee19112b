package types

// FileID is a dense per-run identifier for a parsed file, used by the error
// taxonomy (internal/errors) to tag per-file failures.
type FileID uint32

// ComponentType represents different types of code components for semantic
// analysis. It covers every role category the repo-signal role heuristic
// needs, so codeparser's class/file classifier
// (internal/codeparser/classify.go) and reposignal's BE/FE role split
// (internal/reposignal/roles.go) both tag against this one type.
type ComponentType int

const (
	ComponentTypeUnknown        ComponentType = iota
	ComponentTypeEntryPoint                   // main functions, init blocks, program entry points
	ComponentTypeAPIHandler                   // HTTP handlers, REST endpoints, GraphQL resolvers
	ComponentTypeViewController                // UI components, renderers, views, templates
	ComponentTypeController                   // State management, business logic controllers
	ComponentTypeDataModel                    // Structs, interfaces, schemas, data types
	ComponentTypeConfiguration                // Config files, settings, environment handling
	ComponentTypeTest                         // Test files, test functions, test utilities
	ComponentTypeUtility                      // Helper functions, utilities, shared code
	ComponentTypeService                      // Business logic services, application services
	ComponentTypeRepository                   // Data access layer, repositories, DAOs
	ComponentTypeMiddleware                   // Middleware, interceptors, filters
	ComponentTypeRouter                       // Routing configuration, URL mapping
	ComponentTypeValidator                    // Input validation, data validation
	ComponentTypeSerializer                   // JSON/XML serialization, data transformation
	ComponentTypeDatabase                     // Database migrations, models, queries
	ComponentTypeAuth                         // Authentication, authorization, security
	ComponentTypeLogging                      // Logging utilities, audit trails
	ComponentTypeMetrics                      // Monitoring, metrics, observability
	ComponentTypeWorker                       // Background workers, job processors
	ComponentTypeEvent                        // Event handling, messaging, pub/sub
)

// String returns a string representation of the component type.
func (ct ComponentType) String() string {
	switch ct {
	case ComponentTypeEntryPoint:
		return "entry-point"
	case ComponentTypeAPIHandler:
		return "api-handler"
	case ComponentTypeViewController:
		return "view-component"
	case ComponentTypeController:
		return "controller"
	case ComponentTypeDataModel:
		return "data-model"
	case ComponentTypeConfiguration:
		return "configuration"
	case ComponentTypeTest:
		return "test"
	case ComponentTypeUtility:
		return "utility"
	case ComponentTypeService:
		return "service"
	case ComponentTypeRepository:
		return "repository"
	case ComponentTypeMiddleware:
		return "middleware"
	case ComponentTypeRouter:
		return "router"
	case ComponentTypeValidator:
		return "validator"
	case ComponentTypeSerializer:
		return "serializer"
	case ComponentTypeDatabase:
		return "database"
	case ComponentTypeAuth:
		return "auth"
	case ComponentTypeLogging:
		return "logging"
	case ComponentTypeMetrics:
		return "metrics"
	case ComponentTypeWorker:
		return "worker"
	case ComponentTypeEvent:
		return "event"
	default:
		return "unknown"
	}
}
