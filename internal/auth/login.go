// Package auth drives the sign-in, password-reset, sign-up and onboarding
// flows against the clinic backend and records their results in the session.
package auth

import (
	"context"
	"strings"

	"iris-therapy-portal/internal/apiclient"
	"iris-therapy-portal/internal/feedback"
	"iris-therapy-portal/internal/models"
	"iris-therapy-portal/internal/session"
	"iris-therapy-portal/internal/utils"
)

// Gateway is the slice of the backend the auth flows use.
type Gateway interface {
	Login(ctx context.Context, creds apiclient.Credentials) error
	VerifyLoginOTP(ctx context.Context, code string) (*apiclient.AuthResponse, error)
	Signup(ctx context.Context, creds apiclient.Credentials) (*apiclient.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, code, newPassword string) error
	UpdateProfile(ctx context.Context, userID models.ID, p models.Profile) (*models.Identity, error)
}

// LoginState is a step of the two-factor sign-in.
type LoginState uint8

const (
	StateUnauthenticated LoginState = iota
	StateCredentialsSubmitted
	StateOTPPending
	StateAuthenticated
)

func (s LoginState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateCredentialsSubmitted:
		return "credentials_submitted"
	case StateOTPPending:
		return "otp_pending"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// LoginFlow is the sign-in state machine for one browser session. Its state
// is recovered from the store, so a fresh LoginFlow per request is fine.
type LoginFlow struct {
	gw    Gateway
	store session.Store
	state LoginState
}

// NewLoginFlow resumes the flow recorded in store.
func NewLoginFlow(gw Gateway, store session.Store) *LoginFlow {
	f := &LoginFlow{gw: gw, store: store}
	switch {
	case hasCredential(store):
		f.state = StateAuthenticated
	case store.HasFlag(session.FlagLoginOTPPending):
		f.state = StateOTPPending
	default:
		f.state = StateUnauthenticated
	}
	return f
}

// State returns the current step.
func (f *LoginFlow) State() LoginState { return f.state }

// SubmitCredentials checks the password step. On success the backend emails a
// code and the flow waits for it; no credential is issued yet.
func (f *LoginFlow) SubmitCredentials(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return feedback.Validation(msgFillBoth)
	}
	if !validEmail(email) {
		return feedback.Validation(msgInvalidEmail)
	}

	f.state = StateCredentialsSubmitted
	if err := f.gw.Login(ctx, apiclient.Credentials{Email: email, Password: password}); err != nil {
		f.state = StateUnauthenticated
		_ = f.store.ClearFlag(session.FlagLoginOTPPending)
		return loginMessages.Resolve(err)
	}
	if err := f.store.SetFlag(session.FlagLoginOTPPending); err != nil {
		f.state = StateUnauthenticated
		return loginMessages.Resolve(err)
	}
	f.state = StateOTPPending
	return nil
}

// VerifyOTP exchanges the emailed code for a session. Codes that are not six
// digits are rejected without a backend call. Backend rejections keep the
// flow waiting for a code.
func (f *LoginFlow) VerifyOTP(ctx context.Context, code string) (models.Identity, error) {
	if !validOTP(code) {
		return models.Identity{}, feedback.Validation(msgIncompleteOTP)
	}

	resp, err := f.gw.VerifyLoginOTP(ctx, code)
	if err != nil {
		return models.Identity{}, loginOTPMessages.Resolve(err)
	}
	if err := f.store.SetSession(resp.User, resp.AccessToken); err != nil {
		return models.Identity{}, loginOTPMessages.Resolve(err)
	}
	_ = f.store.ClearFlag(session.FlagLoginOTPPending)
	f.state = StateAuthenticated
	return resp.User, nil
}

// Logout forgets the session and any half-finished sign-in.
func Logout(store session.Store) error {
	_ = store.ClearFlag(session.FlagLoginOTPPending)
	return store.ClearSession()
}

func hasCredential(r session.Reader) bool {
	_, ok := r.Credential()
	return ok
}

func validEmail(s string) bool {
	return utils.Validator().Var(s, "clinicemail") == nil
}
