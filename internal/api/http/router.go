package http

import (
	"net/http"

	"facingcourage-backend/internal/config"
	"facingcourage-backend/internal/metrics"
	"facingcourage-backend/internal/security"

	"github.com/gorilla/mux"
)

// RouterOptions carries everything NewRouter wires into the route table.
type RouterOptions struct {
	Handler           *Handler
	Tokens            security.TokenManager
	LoginLimiter      *LoginLimiter
	AllowedOrigins    []string
	LegacyStatusRoute bool
	Metrics           bool
}

// NewRouter builds the HTTP route table. Middleware per route follows the
// security level registered for its name in config.RouteSecurityConfig.
func NewRouter(opts RouterOptions) http.Handler {
	h := opts.Handler
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Use(RequestID, Recover, AccessLog)
	if opts.Metrics {
		r.Use(metrics.InstrumentHandler)
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet).Name(config.RouteMetrics)
	}
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet).Name(config.RouteHealth)

	api := r.PathPrefix("/api").Subrouter()

	secure := func(name string, next http.HandlerFunc) http.Handler {
		var handler http.Handler = next
		switch config.GetSecurityLevel(name) {
		case config.SecurityAdmin:
			handler = RequireAdmin(opts.Tokens)(handler)
		case config.SecurityLegacy:
			handler = deprecated("/api/admin/applications/{id}/status", handler)
		}
		return handler
	}

	api.Handle("/applications", secure(config.RouteListApplications, h.ListApplications)).
		Methods(http.MethodGet).Name(config.RouteListApplications)
	api.Handle("/applications", secure(config.RouteSubmitApplication, h.SubmitApplication)).
		Methods(http.MethodPost).Name(config.RouteSubmitApplication)
	api.Handle("/applications/{id}", secure(config.RouteGetApplication, h.GetApplication)).
		Methods(http.MethodGet).Name(config.RouteGetApplication)
	if opts.LegacyStatusRoute {
		api.Handle("/applications/{id}/status", secure(config.RouteLegacyUpdateStatus, h.LegacyUpdateStatus)).
			Methods(http.MethodPatch).Name(config.RouteLegacyUpdateStatus)
	}

	login := secure(config.RouteAdminLogin, h.AdminLogin)
	if opts.LoginLimiter != nil {
		login = opts.LoginLimiter.Middleware(login)
	}
	api.Handle("/admin/login", login).Methods(http.MethodPost).Name(config.RouteAdminLogin)

	api.Handle("/admin/applications", secure(config.RouteAdminListApplications, h.AdminListApplications)).
		Methods(http.MethodGet).Name(config.RouteAdminListApplications)
	api.Handle("/admin/applications/stats", secure(config.RouteAdminApplicationStats, h.AdminApplicationStats)).
		Methods(http.MethodGet).Name(config.RouteAdminApplicationStats)
	api.Handle("/admin/applications/export", secure(config.RouteAdminExportApplications, h.AdminExportApplications)).
		Methods(http.MethodGet).Name(config.RouteAdminExportApplications)
	api.Handle("/admin/applications/{id}/status", secure(config.RouteAdminUpdateStatus, h.AdminUpdateStatus)).
		Methods(http.MethodPatch).Name(config.RouteAdminUpdateStatus)

	// Preflight requests never match a route, so CORS wraps the router itself.
	if len(opts.AllowedOrigins) > 0 {
		return CORS(opts.AllowedOrigins)(r)
	}
	return r
}

// deprecated marks responses from a route that has an authenticated successor.
func deprecated(successor string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Deprecation", "true")
		w.Header().Set("Link", "<"+successor+">; rel=\"successor-version\"")
		next.ServeHTTP(w, r)
	})
}
