package domain

import "fmt"

// RouteRequirement declares the access policy of a route.
type RouteRequirement struct {
	RequiresAuth  bool
	RequiresAdmin bool
}

// Validate rejects inconsistent requirements at configuration time:
// an admin-only route must also require authentication.
func (r RouteRequirement) Validate() error {
	if r.RequiresAdmin && !r.RequiresAuth {
		return fmt.Errorf("route requirement: requires_admin without requires_auth")
	}
	return nil
}

// Public is the requirement of an unrestricted route.
func Public() RouteRequirement { return RouteRequirement{} }

// Authenticated is the requirement of a signed-in-only route.
func Authenticated() RouteRequirement { return RouteRequirement{RequiresAuth: true} }

// AdminOnly is the requirement of an admin-only route.
func AdminOnly() RouteRequirement {
	return RouteRequirement{RequiresAuth: true, RequiresAdmin: true}
}

// GuardOutcome is the result of a route guard evaluation.
type GuardOutcome string

const (
	GuardAllow             GuardOutcome = "allow"
	GuardRedirectLogin     GuardOutcome = "redirect_login"
	GuardRedirectForbidden GuardOutcome = "redirect_forbidden"
)

// GuardDecision carries the outcome plus the originally requested path, so a
// login redirect can return the user after signing in.
type GuardDecision struct {
	Outcome  GuardOutcome
	ReturnTo string
}

// EvaluateRoute decides whether a navigation request may proceed. It is a
// pure function of the auth session and the requirement: no caching, no side
// effects, re-evaluated on every navigation because the session may change
// between them.
//
// Admin denials for authenticated non-admins go to the forbidden page, not
// back to login: re-authenticating would not change the outcome.
func EvaluateRoute(auth AuthSession, req RouteRequirement, path string) GuardDecision {
	switch {
	case !req.RequiresAuth:
		return GuardDecision{Outcome: GuardAllow}
	case !auth.Authenticated:
		return GuardDecision{Outcome: GuardRedirectLogin, ReturnTo: path}
	case req.RequiresAdmin && auth.Role != RoleAdmin:
		return GuardDecision{Outcome: GuardRedirectForbidden, ReturnTo: path}
	default:
		return GuardDecision{Outcome: GuardAllow}
	}
}
