package auth

import (
	"context"
	"strings"

	"iris-therapy-portal/internal/feedback"
	"iris-therapy-portal/internal/session"
)

// ResetState is a step of the password reset.
type ResetState uint8

const (
	ResetRequestPending ResetState = iota
	ResetCodeSent
	ResetSubmitted
	ResetDone
)

func (s ResetState) String() string {
	switch s {
	case ResetRequestPending:
		return "request_pending"
	case ResetCodeSent:
		return "code_sent"
	case ResetSubmitted:
		return "submitted"
	case ResetDone:
		return "unauthenticated"
	}
	return "unknown"
}

// ResetFlow is the forgot-password state machine. The code entry step is only
// reachable once the backend has accepted a reset request.
type ResetFlow struct {
	gw    Gateway
	store session.Store
	state ResetState
}

// NewResetFlow resumes the flow recorded in store.
func NewResetFlow(gw Gateway, store session.Store) *ResetFlow {
	f := &ResetFlow{gw: gw, store: store, state: ResetRequestPending}
	if store.HasFlag(session.FlagResetOTPSent) {
		f.state = ResetCodeSent
	}
	return f
}

// State returns the current step.
func (f *ResetFlow) State() ResetState { return f.state }

// CanEnterCode reports whether the code entry view may be shown.
func (f *ResetFlow) CanEnterCode() bool { return f.state == ResetCodeSent }

// RequestCode asks the backend to email a reset code to email.
func (f *ResetFlow) RequestCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return feedback.Validation(msgEnterEmail)
	}
	if !validEmail(email) {
		return feedback.Validation(msgInvalidEmail)
	}
	if err := f.gw.ForgotPassword(ctx, email); err != nil {
		return forgotMessages.Resolve(err)
	}
	if err := f.store.SetFlag(session.FlagResetOTPSent); err != nil {
		return forgotMessages.Resolve(err)
	}
	f.state = ResetCodeSent
	return nil
}

// Submit sets a new password using the emailed code. Local checks run in
// order: code, new password, confirmation.
func (f *ResetFlow) Submit(ctx context.Context, code, password, confirm string) error {
	if !validOTP(code) {
		return feedback.Validation(msgIncompleteOTP)
	}
	if password == "" {
		return feedback.Validation(msgEnterNewPassword)
	}
	if password != confirm {
		return feedback.Validation(msgPasswordsMismatch)
	}

	f.state = ResetSubmitted
	if err := f.gw.ResetPassword(ctx, code, password); err != nil {
		f.state = ResetCodeSent
		return resetMessages.Resolve(err)
	}
	_ = f.store.ClearFlag(session.FlagResetOTPSent)
	f.state = ResetDone
	return nil
}
