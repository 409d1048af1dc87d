// Package api wires the HTTP endpoints for the sponsorship backend.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hopeworks/smile/pkg/audit"
	"github.com/hopeworks/smile/pkg/auth"
	"github.com/hopeworks/smile/pkg/authz"
	"github.com/hopeworks/smile/pkg/httputil"
	"github.com/hopeworks/smile/pkg/identity"
	"github.com/hopeworks/smile/pkg/media"
	"github.com/hopeworks/smile/pkg/middleware"
	"github.com/hopeworks/smile/pkg/observability"
	"github.com/hopeworks/smile/pkg/records"
)

// Server represents the API server
type Server struct {
	router *mux.Router
	logger *observability.Logger

	issuer    *auth.Issuer
	identity  *identity.Store
	directory *identity.CachedDirectory
	records   *records.Store
	media     media.Store
	audit     audit.Logger
	metrics   *observability.Metrics

	authMW       *middleware.AuthMiddleware
	enforcer     *authz.Enforcer
	loginLimiter *middleware.LoginRateLimiter

	corsOrigins []string
	// production disables serving media files from this process.
	production bool
}

// Deps holds the dependencies for a Server.
type Deps struct {
	Logger       *observability.Logger
	Issuer       *auth.Issuer
	Identity     *identity.Store
	Directory    *identity.CachedDirectory
	Records      *records.Store
	Media        media.Store
	Audit        audit.Logger
	Metrics      *observability.Metrics
	LoginLimiter *middleware.LoginRateLimiter
	CORSOrigins  []string
	Production   bool
}

// NewServer creates the API server and configures all routes.
func NewServer(deps Deps) *Server {
	if deps.Audit == nil {
		deps.Audit = audit.NopLogger{}
	}

	s := &Server{
		router:       mux.NewRouter().StrictSlash(true),
		logger:       deps.Logger,
		issuer:       deps.Issuer,
		identity:     deps.Identity,
		directory:    deps.Directory,
		records:      deps.Records,
		media:        deps.Media,
		audit:        deps.Audit,
		metrics:      deps.Metrics,
		loginLimiter: deps.LoginLimiter,
		corsOrigins:  deps.CORSOrigins,
		production:   deps.Production,
	}

	s.authMW = middleware.NewAuthMiddleware(deps.Issuer, deps.Directory, deps.Logger)
	s.enforcer = authz.NewEnforcer(deps.Logger, deps.Audit, deps.Metrics)

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.LoggingMiddleware(s.logger))
	s.router.Use(httputil.RecoveryMiddleware(s.logger))
	s.router.Use(httputil.CORSMiddleware(s.corsOrigins))
	if s.metrics != nil {
		s.router.Use(s.metrics.HTTPMiddleware(routeTemplate))
	}

	authHandlers := &AuthHandlers{server: s}
	childrenHandlers := &ChildrenHandlers{server: s}
	sponsorsHandlers := &SponsorsHandlers{server: s}
	programsHandlers := &ProgramsHandlers{server: s}
	staffHandlers := &StaffHandlers{server: s}

	// Token endpoints are public; login is rate limited per IP.
	login := http.Handler(http.HandlerFunc(authHandlers.login))
	if s.loginLimiter != nil {
		login = s.loginLimiter.Handler(login)
	}
	s.router.Handle("/api/token/", login).Methods("POST")
	s.router.HandleFunc("/api/token/refresh/", authHandlers.refresh).Methods("POST")

	// Profile needs authentication but no resource role.
	s.router.Handle("/api/user/profile/",
		s.authMW.Handler(http.HandlerFunc(authHandlers.profile))).Methods("GET")

	// Each protected resource gets its own subrouter guarded by
	// authentication plus the role policy for that resource.
	s.protect("/api/children-summary/", authz.ResourceChildSummary, func(r *mux.Router) {
		r.HandleFunc("/", childrenHandlers.listSummaries).Methods("GET")
	})
	s.protect("/api/children-detail/", authz.ResourceChildDetail, func(r *mux.Router) {
		r.HandleFunc("/{id:[0-9]+}/", childrenHandlers.getDetail).Methods("GET")
	})
	s.protect("/api/children/", authz.ResourceChildren, func(r *mux.Router) {
		r.HandleFunc("/", childrenHandlers.list).Methods("GET")
		r.HandleFunc("/", childrenHandlers.create).Methods("POST")
		r.HandleFunc("/{id:[0-9]+}/", childrenHandlers.get).Methods("GET")
		r.HandleFunc("/{id:[0-9]+}/", childrenHandlers.update).Methods("PUT", "PATCH")
		r.HandleFunc("/{id:[0-9]+}/", childrenHandlers.delete).Methods("DELETE")
		r.HandleFunc("/{id:[0-9]+}/photo/", childrenHandlers.uploadPhoto).Methods("POST")
	})
	s.protect("/api/sponsors/", authz.ResourceSponsors, func(r *mux.Router) {
		r.HandleFunc("/", sponsorsHandlers.list).Methods("GET")
		r.HandleFunc("/", sponsorsHandlers.create).Methods("POST")
		r.HandleFunc("/{id:[0-9]+}/", sponsorsHandlers.get).Methods("GET")
		r.HandleFunc("/{id:[0-9]+}/", sponsorsHandlers.update).Methods("PUT", "PATCH")
		r.HandleFunc("/{id:[0-9]+}/", sponsorsHandlers.delete).Methods("DELETE")
	})
	s.protect("/api/donations/", authz.ResourceDonations, func(r *mux.Router) {
		r.HandleFunc("/", sponsorsHandlers.listDonations).Methods("GET")
		r.HandleFunc("/", sponsorsHandlers.createDonation).Methods("POST")
		r.HandleFunc("/{id:[0-9]+}/", sponsorsHandlers.getDonation).Methods("GET")
		r.HandleFunc("/{id:[0-9]+}/", sponsorsHandlers.updateDonation).Methods("PUT", "PATCH")
		r.HandleFunc("/{id:[0-9]+}/", sponsorsHandlers.deleteDonation).Methods("DELETE")
	})
	s.protect("/api/programs/", authz.ResourcePrograms, func(r *mux.Router) {
		r.HandleFunc("/", programsHandlers.list).Methods("GET")
		r.HandleFunc("/", programsHandlers.create).Methods("POST")
		r.HandleFunc("/{id:[0-9]+}/", programsHandlers.get).Methods("GET")
		r.HandleFunc("/{id:[0-9]+}/", programsHandlers.update).Methods("PUT", "PATCH")
		r.HandleFunc("/{id:[0-9]+}/", programsHandlers.delete).Methods("DELETE")
	})
	s.protect("/api/childprograms/", authz.ResourceChildPrograms, func(r *mux.Router) {
		r.HandleFunc("/", programsHandlers.listEnrollments).Methods("GET")
		r.HandleFunc("/", programsHandlers.createEnrollment).Methods("POST")
		r.HandleFunc("/{id:[0-9]+}/", programsHandlers.getEnrollment).Methods("GET")
		r.HandleFunc("/{id:[0-9]+}/", programsHandlers.updateEnrollment).Methods("PUT", "PATCH")
		r.HandleFunc("/{id:[0-9]+}/", programsHandlers.deleteEnrollment).Methods("DELETE")
	})
	s.protect("/api/staffs/", authz.ResourceStaff, func(r *mux.Router) {
		r.HandleFunc("/", staffHandlers.list).Methods("GET")
		r.HandleFunc("/", staffHandlers.create).Methods("POST")
		r.HandleFunc("/{id:[0-9]+}/", staffHandlers.get).Methods("GET")
		r.HandleFunc("/{id:[0-9]+}/", staffHandlers.update).Methods("PUT", "PATCH")
		r.HandleFunc("/{id:[0-9]+}/", staffHandlers.delete).Methods("DELETE")
	})
	s.protect("/api/users/", authz.ResourceUsers, func(r *mux.Router) {
		r.HandleFunc("/", staffHandlers.listUsers).Methods("GET")
		r.HandleFunc("/{id:[0-9]+}/", staffHandlers.getUser).Methods("GET")
	})

	// Development-only media serving; production fronts media with a
	// CDN or object store.
	if !s.production && s.media != nil {
		s.router.Handle("/media/{key:.*}",
			s.authMW.Handler(http.HandlerFunc(childrenHandlers.serveMedia))).Methods("GET")
	}
}

// protect mounts a subrouter at prefix behind authentication and the
// role policy for the resource.
func (s *Server) protect(prefix string, resource authz.Resource, register func(r *mux.Router)) {
	sub := s.router.PathPrefix(strings.TrimSuffix(prefix, "/")).Subrouter()
	sub.Use(mux.MiddlewareFunc(s.authMW.Handler))
	sub.Use(mux.MiddlewareFunc(s.enforcer.Require(resource)))
	register(sub)
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routeTemplate returns the mux route template for metrics labels.
func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}
	return tpl
}
