package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityLegacy                      // Unauthenticated, deprecated mutation
	SecurityAdmin                       // Admin bearer token required
)

func (l SecurityLevel) String() string {
	switch l {
	case SecurityPublic:
		return "public"
	case SecurityLegacy:
		return "legacy"
	default:
		return "admin"
	}
}

// Route names registered on the HTTP router.
const (
	RouteHealth                  = "health"
	RouteMetrics                 = "metrics"
	RouteListApplications        = "applications.list"
	RouteGetApplication          = "applications.get"
	RouteSubmitApplication       = "applications.submit"
	RouteLegacyUpdateStatus      = "applications.status.legacy"
	RouteAdminLogin              = "admin.login"
	RouteAdminListApplications   = "admin.applications.list"
	RouteAdminApplicationStats   = "admin.applications.stats"
	RouteAdminExportApplications = "admin.applications.export"
	RouteAdminUpdateStatus       = "admin.applications.status"
)

// RouteSecurityConfig maps route names to their required security level
var RouteSecurityConfig = map[string]SecurityLevel{
	// Public
	RouteHealth:            SecurityPublic,
	RouteMetrics:           SecurityPublic,
	RouteListApplications:  SecurityPublic,
	RouteGetApplication:    SecurityPublic,
	RouteSubmitApplication: SecurityPublic,
	RouteAdminLogin:        SecurityPublic,

	// Legacy
	RouteLegacyUpdateStatus: SecurityLegacy,

	// Admin token protected
	RouteAdminListApplications:   SecurityAdmin,
	RouteAdminApplicationStats:   SecurityAdmin,
	RouteAdminExportApplications: SecurityAdmin,
	RouteAdminUpdateStatus:       SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := RouteSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityAdmin
}
