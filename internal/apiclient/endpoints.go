package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"iris-therapy-portal/internal/models"
)

// Credentials is the body of POST /login and POST /signup.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned once a credential is issued.
type AuthResponse struct {
	AccessToken models.Credential `json:"access_token"`
	User        models.Identity   `json:"user"`
}

// Login checks email and password; on success the backend emails a login OTP.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	if err := c.Do(ctx, http.MethodPost, "/login", creds, nil); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// VerifyLoginOTP exchanges the emailed code for a credential and identity.
func (c *Client) VerifyLoginOTP(ctx context.Context, code string) (*AuthResponse, error) {
	var out AuthResponse
	path := withQuery("/verify-login-otp", url.Values{"otp_code": {code}})
	if err := c.Do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, fmt.Errorf("verify login otp: %w", err)
	}
	return &out, nil
}

// Signup registers a new account and returns its credential.
func (c *Client) Signup(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/signup", creds, &out); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	return &out, nil
}

// ForgotPassword asks the backend to email a reset code.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	if err := c.Do(ctx, http.MethodPost, "/forgot-password", body, nil); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ResetPassword sets a new password authorised by an emailed code.
func (c *Client) ResetPassword(ctx context.Context, code, newPassword string) error {
	path := withQuery("/reset-password", url.Values{"otp_code": {code}, "new_password": {newPassword}})
	if err := c.Do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// UpdateProfile completes onboarding for userID.
func (c *Client) UpdateProfile(ctx context.Context, userID models.ID, p models.Profile) (*models.Identity, error) {
	q := url.Values{
		"username":      {p.Username},
		"first_name":    {p.FirstName},
		"last_name":     {p.LastName},
		"phone_number":  {p.PhoneNumber},
		"date_of_birth": {p.DateOfBirth},
	}
	var out struct {
		User models.Identity `json:"user"`
	}
	path := withQuery("/users/"+url.PathEscape(userID.String()), q)
	if err := c.Do(ctx, http.MethodPatch, path, nil, &out); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &out.User, nil
}

// ListSessions returns every session visible to the credential.
func (c *Client) ListSessions(ctx context.Context) ([]models.AppointmentRecord, error) {
	var out []models.AppointmentRecord
	if err := c.Do(ctx, http.MethodGet, "/session", nil, &out); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// CreateSession books a new session.
func (c *Client) CreateSession(ctx context.Context, a models.NewAppointment) (*models.AppointmentRecord, error) {
	var out models.AppointmentRecord
	if err := c.Do(ctx, http.MethodPost, "/sessions", a, &out); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &out, nil
}

// UpdateSessionStatus patches the status of one session.
func (c *Client) UpdateSessionStatus(ctx context.Context, id models.ID, status models.AppointmentStatus) error {
	path := "/session/" + url.PathEscape(id.String())
	if err := c.Do(ctx, http.MethodPatch, path, models.StatusUpdate{Status: status}, nil); err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

// ListUsers returns every user.
func (c *Client) ListUsers(ctx context.Context) ([]models.UserRecord, error) {
	return c.listUsers(ctx, "/users")
}

// ListTherapists returns every therapist.
func (c *Client) ListTherapists(ctx context.Context) ([]models.UserRecord, error) {
	return c.listUsers(ctx, "/therapists")
}

// ListPatients returns every patient.
func (c *Client) ListPatients(ctx context.Context) ([]models.UserRecord, error) {
	return c.listUsers(ctx, "/patients")
}

// CreateTherapist registers a therapist account.
func (c *Client) CreateTherapist(ctx context.Context, t models.NewTherapist) (*models.UserRecord, error) {
	var out models.UserRecord
	if err := c.Do(ctx, http.MethodPost, "/therapists", t, &out); err != nil {
		return nil, fmt.Errorf("create therapist: %w", err)
	}
	return &out, nil
}

func (c *Client) listUsers(ctx context.Context, path string) ([]models.UserRecord, error) {
	var out []models.UserRecord
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list %s: %w", path[1:], err)
	}
	return out, nil
}
