package audit

import "strings"

// Actions recorded by the credential services.
const (
	ActionLoginSuccess      = "login_success"
	ActionLoginFailure      = "login_failure"
	ActionLogout            = "logout"
	ActionSessionsRevoked   = "sessions_revoked"
	ActionHandoffIssued     = "handoff_issued"
	ActionHandoffRedeemed   = "handoff_redeemed"
	ActionCredentialTamper  = "credential_tamper"
	ActionPrincipalDisabled = "principal_disabled"
)

// Resources the actions apply to.
const (
	ResourceSession = "session"
	ResourceHandoff = "handoff"
	ResourceUser    = "user"
)

// ActionResource holds action and resource derived from a gRPC full method name.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseFullMethod returns action and resource for a gRPC full method (e.g. /grpc.health.v1.Health/Check).
// Action is the lowercased method name with Get/List/Create/Update/Delete collapsed to the verb.
// Resource is the service name without a "Service" suffix, lowercased on the first letter.
func ParseFullMethod(fullMethod string) ActionResource {
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	method := fullMethod[slash+1:]
	service := fullMethod[:slash]
	dot := strings.LastIndex(service, ".")
	if dot < 0 {
		return ActionResource{Action: methodToAction(method), Resource: "unknown"}
	}
	return ActionResource{Action: methodToAction(method), Resource: serviceToResource(service[dot+1:])}
}

func serviceToResource(serviceName string) string {
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s[0:1]) + s[1:]
}

func methodToAction(method string) string {
	for _, verb := range []string{"Get", "List", "Create", "Update", "Delete", "Revoke", "Redeem"} {
		if strings.HasPrefix(method, verb) && method != verb {
			return strings.ToLower(verb)
		}
	}
	if method == "" {
		return "unknown"
	}
	return strings.ToLower(method)
}
