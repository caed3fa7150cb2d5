package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iris-therapy-portal/internal/models"
	"iris-therapy-portal/internal/session"
)

func storeWith(t *testing.T, role models.Role, verified bool) *session.MemoryStore {
	t.Helper()
	s := session.NewMemoryStore()
	require.NoError(t, s.SetSession(models.Identity{UserID: "u-1", Role: role, IsVerified: verified}, "tok"))
	return s
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		store    session.Reader
		required models.Role
		want     Decision
	}{
		{"no session", session.NewMemoryStore(), models.RoleAdmin, Decision{Redirect: SignInPath}},
		{"patient on therapist dashboard", storeWith(t, models.RolePatient, true), models.RoleTherapist, Decision{Redirect: SignInPath}},
		{"therapist on admin dashboard", storeWith(t, models.RoleTherapist, true), models.RoleAdmin, Decision{Redirect: SignInPath}},
		{"unknown role", storeWith(t, models.RoleUnknown, true), models.RoleUnknown, Decision{Redirect: SignInPath}},
		{"patient home", storeWith(t, models.RolePatient, true), models.RolePatient, Decision{Allowed: true}},
		{"admin home", storeWith(t, models.RoleAdmin, true), models.RoleAdmin, Decision{Allowed: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.store, tt.required))
		})
	}
}

func TestEvaluate_IdentityWithoutCredential(t *testing.T) {
	s := session.NewMemoryStore()
	require.NoError(t, s.SetSession(models.Identity{UserID: "u-1", Role: models.RoleAdmin}, ""))
	assert.Equal(t, Decision{Redirect: SignInPath}, Evaluate(s, models.RoleAdmin))
}

func TestHomePath(t *testing.T) {
	assert.Equal(t, "/admin", HomePath(models.RoleAdmin))
	assert.Equal(t, "/therapist", HomePath(models.RoleTherapist))
	assert.Equal(t, "/patient", HomePath(models.RolePatient))
	assert.Equal(t, SignInPath, HomePath(models.RoleUnknown))
}

func TestLanding(t *testing.T) {
	assert.True(t, Landing(session.NewMemoryStore()).Allowed)
	assert.Equal(t, Decision{Redirect: "/therapist"}, Landing(storeWith(t, models.RoleTherapist, true)))
	assert.True(t, Landing(storeWith(t, models.RoleUnknown, true)).Allowed)
}

func TestAfterAuth(t *testing.T) {
	assert.Equal(t, OnboardingPath, AfterAuth(models.Identity{Role: models.RolePatient}))
	assert.Equal(t, "/patient", AfterAuth(models.Identity{Role: models.RolePatient, IsVerified: true}))
}

func TestOnboarding(t *testing.T) {
	assert.Equal(t, Decision{Redirect: SignInPath}, Onboarding(session.NewMemoryStore()))
	assert.Equal(t, Decision{Redirect: "/admin"}, Onboarding(storeWith(t, models.RoleAdmin, true)))
	assert.True(t, Onboarding(storeWith(t, models.RolePatient, false)).Allowed)
}
