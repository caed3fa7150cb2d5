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

// SignupForm is the sign-up page submission.
type SignupForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Confirm  string `form:"confirm_password"`
}

// Signup registers an account and stores the issued session.
func Signup(ctx context.Context, gw Gateway, store session.Store, form SignupForm) (models.Identity, error) {
	email := strings.TrimSpace(form.Email)
	if !validEmail(email) {
		return models.Identity{}, feedback.Validation(msgSignupEmail)
	}
	if !utils.IsStrongPassword(form.Password) {
		return models.Identity{}, feedback.Validation(msgWeakPassword)
	}
	if form.Password != form.Confirm {
		return models.Identity{}, feedback.Validation(msgPasswordsMismatch)
	}

	resp, err := gw.Signup(ctx, apiclient.Credentials{Email: email, Password: form.Password})
	if err != nil {
		return models.Identity{}, signupMessages.Resolve(err)
	}
	if err := store.SetSession(resp.User, resp.AccessToken); err != nil {
		return models.Identity{}, signupMessages.Resolve(err)
	}
	return resp.User, nil
}

// CheckProfile validates the onboarding fields in step order and returns the
// first failure.
func CheckProfile(p models.Profile) error {
	switch {
	case strings.TrimSpace(p.Username) == "":
		return feedback.Validation(msgUsernameRequired)
	case strings.TrimSpace(p.FirstName) == "":
		return feedback.Validation(msgFirstNameRequired)
	case strings.TrimSpace(p.LastName) == "":
		return feedback.Validation(msgLastNameRequired)
	case strings.TrimSpace(p.DateOfBirth) == "":
		return feedback.Validation(msgDOBRequired)
	case !utils.IsIntlPhone(strings.TrimSpace(p.PhoneNumber)):
		return feedback.Validation(msgPhoneInvalid)
	case !p.AgreeTerms:
		return feedback.Validation(msgAcceptTerms)
	}
	return nil
}

// CompleteProfile sends the onboarding answers and refreshes the stored
// identity with the backend's copy. The credential is kept as is.
func CompleteProfile(ctx context.Context, gw Gateway, store session.Store, p models.Profile) (models.Identity, error) {
	identity, ok := store.Identity()
	cred, hasCred := store.Credential()
	if !ok || !hasCred {
		return models.Identity{}, feedback.Validation(msgNoIdentity)
	}
	if err := CheckProfile(p); err != nil {
		return models.Identity{}, err
	}

	updated, err := gw.UpdateProfile(ctx, identity.UserID, p)
	if err != nil {
		return models.Identity{}, onboardingMessages.Resolve(err)
	}
	if updated.UserID.Empty() {
		updated.UserID = identity.UserID
	}
	if updated.Role == models.RoleUnknown {
		updated.Role = identity.Role
	}
	if err := store.SetSession(*updated, cred); err != nil {
		return models.Identity{}, onboardingMessages.Resolve(err)
	}
	return *updated, nil
}
