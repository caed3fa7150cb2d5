// Package guard decides which dashboard, if any, the current session may see.
package guard

import (
	"iris-therapy-portal/internal/models"
	"iris-therapy-portal/internal/session"
)

// Paths the guard redirects to.
const (
	SignInPath     = "/signin"
	OnboardingPath = "/onboarding"
)

// Decision is the outcome of a guard check. When Allowed is false Redirect
// names where the browser should go instead.
type Decision struct {
	Allowed  bool
	Redirect string
}

var allow = Decision{Allowed: true}

func redirect(to string) Decision { return Decision{Redirect: to} }

// Evaluate checks the session against the role a dashboard requires. A missing
// credential or a different role both send the user to sign-in.
func Evaluate(store session.Reader, required models.Role) Decision {
	if _, ok := store.Credential(); !ok {
		return redirect(SignInPath)
	}
	identity, ok := store.Identity()
	if !ok || identity.Role != required || !required.Valid() {
		return redirect(SignInPath)
	}
	return allow
}

// HomePath is the dashboard root for role.
func HomePath(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "/admin"
	case models.RoleTherapist:
		return "/therapist"
	case models.RolePatient:
		return "/patient"
	case models.RoleUnknown:
		return SignInPath
	}
	return SignInPath
}

// Landing is evaluated on the public auth pages: a signed-in user with a known
// role is sent to their dashboard.
func Landing(store session.Reader) Decision {
	if _, ok := store.Credential(); !ok {
		return allow
	}
	identity, ok := store.Identity()
	if !ok || !identity.Role.Valid() {
		return allow
	}
	return redirect(HomePath(identity.Role))
}

// AfterAuth is where a freshly authenticated identity goes: onboarding until
// the profile is verified, then the role's dashboard.
func AfterAuth(identity models.Identity) string {
	if !identity.IsVerified {
		return OnboardingPath
	}
	return HomePath(identity.Role)
}

// Onboarding gates the profile completion page: no identity means sign-in,
// an already verified identity goes home.
func Onboarding(store session.Reader) Decision {
	identity, ok := store.Identity()
	if !ok || identity.UserID.Empty() {
		return redirect(SignInPath)
	}
	if identity.IsVerified {
		return redirect(HomePath(identity.Role))
	}
	return allow
}
