package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"iris-therapy-portal/internal/apiclient"
	"iris-therapy-portal/internal/auth"
	"iris-therapy-portal/internal/feedback"
	"iris-therapy-portal/internal/guard"
	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/middleware"
	"iris-therapy-portal/internal/models"
	"iris-therapy-portal/internal/observability/metrics"
)

// AuthHandler serves sign-in, sign-up, password reset, onboarding and logout.
type AuthHandler struct {
	API     *apiclient.Client
	Logger  *logging.Logger
	Metrics *metrics.AuthMetrics
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(api *apiclient.Client, logger *logging.Logger, m *metrics.AuthMetrics) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{API: api, Logger: logger, Metrics: m}
}

const (
	msgOTPSent       = "Password reset code was sent to your email."
	msgPasswordReset = "Password reset successful! You can now log in."
)

// Root sends the browser wherever its session belongs.
func (h *AuthHandler) Root(c *gin.Context) {
	store := middleware.SessionFrom(c)
	identity, ok := store.Identity()
	if _, hasCred := store.Credential(); !ok || !hasCred {
		c.Redirect(http.StatusFound, guard.SignInPath)
		return
	}
	c.Redirect(http.StatusFound, guard.AfterAuth(identity))
}

// ShowSignIn renders the sign-in page, or redirects a signed-in user home.
func (h *AuthHandler) ShowSignIn(c *gin.Context) {
	if d := guard.Landing(middleware.SessionFrom(c)); !d.Allowed {
		c.Redirect(http.StatusFound, d.Redirect)
		return
	}
	render(c, http.StatusOK, "signin", gin.H{"Title": "Sign In"})
}

// SignIn handles the password step.
func (h *AuthHandler) SignIn(c *gin.Context) {
	flow := auth.NewLoginFlow(h.API, middleware.SessionFrom(c))
	err := flow.SubmitCredentials(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
	h.observe("login", err)
	if err != nil {
		h.fail(c, "/signin", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/signin/otp")
}

// ShowOTP renders the code entry step. It is only reachable after the
// password step succeeded.
func (h *AuthHandler) ShowOTP(c *gin.Context) {
	flow := auth.NewLoginFlow(h.API, middleware.SessionFrom(c))
	switch flow.State() {
	case auth.StateOTPPending:
		render(c, http.StatusOK, "otp", gin.H{"Title": "Verify Sign In", "OTPBoxes": otpBoxes()})
	case auth.StateAuthenticated:
		identity, _ := middleware.SessionFrom(c).Identity()
		c.Redirect(http.StatusFound, guard.AfterAuth(identity))
	default:
		c.Redirect(http.StatusFound, guard.SignInPath)
	}
}

// VerifyOTP exchanges the submitted code for a session.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	flow := auth.NewLoginFlow(h.API, middleware.SessionFrom(c))
	if flow.State() != auth.StateOTPPending {
		c.Redirect(http.StatusSeeOther, guard.SignInPath)
		return
	}
	input := auth.OTPFromForm(c.PostFormArray("otp"))
	identity, err := flow.VerifyOTP(c.Request.Context(), input.Code())
	h.observe("verify_otp", err)
	if err != nil {
		h.fail(c, "/signin/otp", err)
		return
	}
	h.Logger.Info("user signed in", "user_id", identity.UserID, "role", identity.Role.String())
	c.Redirect(http.StatusSeeOther, guard.AfterAuth(identity))
}

// CancelOTP abandons a pending sign-in.
func (h *AuthHandler) CancelOTP(c *gin.Context) {
	_ = auth.Logout(middleware.SessionFrom(c))
	c.Redirect(http.StatusSeeOther, guard.SignInPath)
}

// ShowSignup renders the sign-up page.
func (h *AuthHandler) ShowSignup(c *gin.Context) {
	if d := guard.Landing(middleware.SessionFrom(c)); !d.Allowed {
		c.Redirect(http.StatusFound, d.Redirect)
		return
	}
	render(c, http.StatusOK, "signup", gin.H{"Title": "Sign Up"})
}

// Signup registers an account and continues to onboarding.
func (h *AuthHandler) Signup(c *gin.Context) {
	var form auth.SignupForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, "/signup", feedback.Validation("Please fill in all fields."))
		return
	}
	identity, err := auth.Signup(c.Request.Context(), h.API, middleware.SessionFrom(c), form)
	h.observe("signup", err)
	if err != nil {
		h.fail(c, "/signup", err)
		return
	}
	c.Redirect(http.StatusSeeOther, guard.AfterAuth(identity))
}

// ShowForgot renders the reset request page.
func (h *AuthHandler) ShowForgot(c *gin.Context) {
	render(c, http.StatusOK, "forgot", gin.H{"Title": "Forgot Password"})
}

// Forgot asks the backend to email a reset code.
func (h *AuthHandler) Forgot(c *gin.Context) {
	flow := auth.NewResetFlow(h.API, middleware.SessionFrom(c))
	err := flow.RequestCode(c.Request.Context(), c.PostForm("email"))
	h.observe("forgot_password", err)
	if err != nil {
		h.fail(c, "/forgot-password", err)
		return
	}
	redirectWith(c, "/reset-password", feedback.Success(msgOTPSent))
}

// ShowReset renders the code entry step of the reset, which requires a prior
// successful request.
func (h *AuthHandler) ShowReset(c *gin.Context) {
	flow := auth.NewResetFlow(h.API, middleware.SessionFrom(c))
	if !flow.CanEnterCode() {
		c.Redirect(http.StatusFound, "/forgot-password")
		return
	}
	render(c, http.StatusOK, "reset", gin.H{"Title": "Reset Password", "OTPBoxes": otpBoxes()})
}

// Reset sets the new password.
func (h *AuthHandler) Reset(c *gin.Context) {
	flow := auth.NewResetFlow(h.API, middleware.SessionFrom(c))
	if !flow.CanEnterCode() {
		c.Redirect(http.StatusSeeOther, "/forgot-password")
		return
	}
	input := auth.OTPFromForm(c.PostFormArray("otp"))
	err := flow.Submit(c.Request.Context(), input.Code(), c.PostForm("new_password"), c.PostForm("confirm_password"))
	h.observe("reset_password", err)
	if err != nil {
		h.fail(c, "/reset-password", err)
		return
	}
	redirectWith(c, guard.SignInPath, feedback.Success(msgPasswordReset))
}

// ShowOnboarding renders profile completion for unverified users.
func (h *AuthHandler) ShowOnboarding(c *gin.Context) {
	store := middleware.SessionFrom(c)
	if d := guard.Onboarding(store); !d.Allowed {
		c.Redirect(http.StatusFound, d.Redirect)
		return
	}
	identity, _ := store.Identity()
	render(c, http.StatusOK, "onboarding", gin.H{
		"Title": "Onboarding",
		"Profile": models.Profile{
			Username:  identity.Username,
			FirstName: identity.FirstName,
			LastName:  identity.LastName,
		},
	})
}

// Onboarding submits the profile.
func (h *AuthHandler) Onboarding(c *gin.Context) {
	store := middleware.SessionFrom(c)
	if d := guard.Onboarding(store); !d.Allowed {
		c.Redirect(http.StatusSeeOther, d.Redirect)
		return
	}
	profile := models.Profile{
		Username:    strings.TrimSpace(c.PostForm("username")),
		FirstName:   strings.TrimSpace(c.PostForm("first_name")),
		LastName:    strings.TrimSpace(c.PostForm("last_name")),
		DateOfBirth: c.PostForm("date_of_birth"),
		PhoneNumber: strings.TrimSpace(c.PostForm("phone_number")),
		AgreeTerms:  c.PostForm("agree_terms") != "",
	}
	identity, err := auth.CompleteProfile(c.Request.Context(), credentialed(c, h.API), store, profile)
	h.observe("onboarding", err)
	if err != nil {
		if expired(c, err, h.Logger) {
			return
		}
		h.fail(c, guard.OnboardingPath, err)
		return
	}
	c.Redirect(http.StatusSeeOther, guard.HomePath(identity.Role))
}

// Logout clears the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := auth.Logout(middleware.SessionFrom(c)); err != nil {
		h.Logger.Error("logout failed", "error", err)
	}
	c.Redirect(http.StatusSeeOther, guard.SignInPath)
}

// fail queues the user-facing message for err and returns to back.
func (h *AuthHandler) fail(c *gin.Context, back string, err error) {
	if !feedback.IsValidation(err) {
		h.Logger.Info("auth step failed", "path", c.Request.URL.Path, "error", err)
	}
	redirectWith(c, back, feedback.Failure(err, "Something went wrong"))
}

func (h *AuthHandler) observe(step string, err error) {
	outcome := "ok"
	var fe *feedback.Error
	if errors.As(err, &fe) {
		outcome = fe.Kind.String()
	} else if err != nil {
		outcome = "error"
	}
	h.Metrics.ObserveStep(step, outcome)
}
