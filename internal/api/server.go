// Package api provides the HTTP API server and handlers for the TagWarden application.
package api

import (
	"log/slog"
	"net/http"
	"path"
	"reflect"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tagwardenapp/tagwarden-server/internal/search"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store            *store.Store
	services         *Services
	search           *search.SearchIndex
	router           *chi.Mux
	api              huma.API
	logger           *slog.Logger
	writeRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, index *search.SearchIndex, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:            st,
		services:         services,
		search:           index,
		router:           router,
		logger:           logger,
		writeRateLimiter: NewRateLimiter(120, time.Minute, 30),
	}

	s.setupMiddleware()

	s.api = humachi.New(router, newHumaConfig("TagWarden API"))
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerTagRoutes()
	s.registerHierarchyRoutes()
	s.registerVersionRoutes()
	s.registerPermissionRoutes()
	s.registerConstraintRoutes()
	s.registerSuggestionRoutes()
	s.registerTransferRoutes()

	return s
}

// newHumaConfig builds the OpenAPI config with a package-qualifying schema
// namer. The hierarchy, version, and constraint engines each report a
// Violation type; the default namer registers schemas by bare type name and
// refuses the collision.
func newHumaConfig(title string) huma.Config {
	cfg := huma.DefaultConfig(title, "1.0.0")
	cfg.Components.Schemas = huma.NewMapRegistry("#/components/schemas/", schemaNamer)
	return cfg
}

// qualifiedSchemaNames lists bare type names shared across packages.
var qualifiedSchemaNames = map[string]bool{
	"Violation": true,
	"Result":    true,
}

// schemaNamer prefixes colliding schema names with their Go package, so
// hierarchy.Violation registers as HierarchyViolation and version.Violation
// as VersionViolation.
func schemaNamer(t reflect.Type, hint string) string {
	name := huma.DefaultSchemaNamer(t, hint)
	if !qualifiedSchemaNames[name] {
		return name
	}
	pkg := path.Base(t.PkgPath())
	if pkg == "" || pkg == "." {
		return name
	}
	return strings.ToUpper(pkg[:1]) + pkg[1:] + name
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Actor-ID"},
		MaxAge:         300,
	}))
	s.router.Use(s.writeLimitMiddleware)
}
