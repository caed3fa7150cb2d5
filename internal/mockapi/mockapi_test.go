package mockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iris-therapy-portal/internal/apiclient"
	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/models"
)

type testEnv struct {
	srv    *Server
	mailer *MemoryMailer
	api    *apiclient.Client
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := InitDB(DatabaseConfig{})
	require.NoError(t, err)
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "test-secret"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	mailer := NewMemoryMailer()
	srv := NewServer(db, cfg, mailer, logging.Discard())
	require.NoError(t, Seed(context.Background(), db, cfg.Location, time.Now()))

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	api, err := apiclient.New(ts.URL, apiclient.WithLogger(logging.Discard()))
	require.NoError(t, err)
	return &testEnv{srv: srv, mailer: mailer, api: api}
}

func (e *testEnv) signIn(t *testing.T, acct SeedAccount) (*apiclient.Client, models.Identity) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.api.Login(ctx, apiclient.Credentials{Email: acct.Email, Password: acct.Password}))
	code, ok := e.mailer.LastCode(acct.Email, PurposeLogin)
	require.True(t, ok)
	resp, err := e.api.VerifyLoginOTP(ctx, code)
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	return e.api.WithCredential(resp.AccessToken), resp.User
}

func detailOf(t *testing.T, err error) string {
	t.Helper()
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	return apiErr.Detail
}

func TestLoginOTP_IssuesTokenOnce(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	require.NoError(t, env.api.Login(ctx, apiclient.Credentials{Email: SeedPatient.Email, Password: SeedPatient.Password}))
	code, ok := env.mailer.LastCode(SeedPatient.Email, PurposeLogin)
	require.True(t, ok)
	assert.Len(t, code, 6)

	resp, err := env.api.VerifyLoginOTP(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, models.RolePatient, resp.User.Role)
	assert.Equal(t, "Sam", resp.User.FirstName)
	assert.True(t, resp.User.IsVerified)

	_, err = env.api.VerifyLoginOTP(ctx, code)
	assert.Equal(t, "OTP has already been used", detailOf(t, err))

	_, err = env.api.VerifyLoginOTP(ctx, "000000x")
	assert.Equal(t, "Invalid OTP code", detailOf(t, err))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t, Config{})

	err := env.api.Login(context.Background(), apiclient.Credentials{Email: SeedPatient.Email, Password: "Wrong@123"})
	assert.Equal(t, "Invalid credentials", detailOf(t, err))
	assert.Equal(t, http.StatusUnauthorized, apiclient.StatusOf(err))
	assert.Empty(t, env.mailer.Outbox())
}

func TestVerifyLoginOTP_Expired(t *testing.T) {
	env := newTestEnv(t, Config{OTPExpiry: 10 * time.Minute})
	ctx := context.Background()
	issued := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	env.srv.Now = func() time.Time { return issued }

	require.NoError(t, env.api.Login(ctx, apiclient.Credentials{Email: SeedPatient.Email, Password: SeedPatient.Password}))
	code, _ := env.mailer.LastCode(SeedPatient.Email, PurposeLogin)

	env.srv.Now = func() time.Time { return issued.Add(11 * time.Minute) }
	_, err := env.api.VerifyLoginOTP(ctx, code)
	assert.Equal(t, "OTP has expired", detailOf(t, err))
}

func TestLogin_NewCodeReplacesOld(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()
	creds := apiclient.Credentials{Email: SeedPatient.Email, Password: SeedPatient.Password}

	require.NoError(t, env.api.Login(ctx, creds))
	first, _ := env.mailer.LastCode(SeedPatient.Email, PurposeLogin)
	require.NoError(t, env.api.Login(ctx, creds))
	second, _ := env.mailer.LastCode(SeedPatient.Email, PurposeLogin)

	if first != second {
		_, err := env.api.VerifyLoginOTP(ctx, first)
		assert.Equal(t, "Invalid OTP code", detailOf(t, err))
	}
	_, err := env.api.VerifyLoginOTP(ctx, second)
	assert.NoError(t, err)
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	resp, err := env.api.Signup(ctx, apiclient.Credentials{Email: "new.patient@example.com", Password: "Strong@123"})
	require.NoError(t, err)
	assert.False(t, resp.User.IsVerified)
	assert.Equal(t, models.RolePatient, resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = env.api.Signup(ctx, apiclient.Credentials{Email: SeedPatient.Email, Password: "Strong@123"})
	assert.Equal(t, "Email already registered", detailOf(t, err))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	resp, err := env.api.Signup(ctx, apiclient.Credentials{Email: "onboard@example.com", Password: "Strong@123"})
	require.NoError(t, err)
	api := env.api.WithCredential(resp.AccessToken)

	profile := models.Profile{Username: "samlee", FirstName: "On", LastName: "Board", DateOfBirth: "2000-01-01", PhoneNumber: "+15551234567", AgreeTerms: true}
	_, err = api.UpdateProfile(ctx, resp.User.UserID, profile)
	assert.Equal(t, "Username already taken", detailOf(t, err))

	profile.Username = "onboard"
	updated, err := api.UpdateProfile(ctx, resp.User.UserID, profile)
	require.NoError(t, err)
	assert.True(t, updated.IsVerified)
	assert.Equal(t, "onboard", updated.Username)
	assert.Equal(t, models.RolePatient, updated.Role)

	patientAPI, _ := env.signIn(t, SeedPatient)
	_, err = patientAPI.UpdateProfile(ctx, resp.User.UserID, profile)
	assert.Equal(t, http.StatusForbidden, apiclient.StatusOf(err))
}

func TestForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	err := env.api.ForgotPassword(ctx, "nobody@example.com")
	assert.Equal(t, "User not found", detailOf(t, err))
	err = env.api.ForgotPassword(ctx, "not-an-email")
	assert.Equal(t, "Invalid email format", detailOf(t, err))

	require.NoError(t, env.api.ForgotPassword(ctx, SeedTherapist.Email))
	code, ok := env.mailer.LastCode(SeedTherapist.Email, PurposeReset)
	require.True(t, ok)

	require.NoError(t, env.api.ResetPassword(ctx, code, "Changed@99"))
	err = env.api.ResetPassword(ctx, code, "Changed@99")
	assert.Equal(t, "OTP has already been used", detailOf(t, err))

	err = env.api.Login(ctx, apiclient.Credentials{Email: SeedTherapist.Email, Password: SeedTherapist.Password})
	assert.Equal(t, "Invalid credentials", detailOf(t, err))
	assert.NoError(t, env.api.Login(ctx, apiclient.Credentials{Email: SeedTherapist.Email, Password: "Changed@99"}))
}

func TestSessions_CreateListAndUpdate(t *testing.T) {
	env := newTestEnv(t, Config{Location: time.UTC})
	ctx := context.Background()
	patientAPI, patient := env.signIn(t, SeedPatient)
	therapistAPI, therapist := env.signIn(t, SeedTherapist)

	created, err := patientAPI.CreateSession(ctx, models.NewAppointment{
		Reason:      "Check-in",
		Time:        "2030-03-04T15:30:00Z",
		PatientID:   patient.UserID,
		TherapistID: therapist.UserID,
	})
	require.NoError(t, err)
	assert.Equal(t, "2030-03-04", created.Date)
	assert.Equal(t, "15:30:00", created.Time)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.False(t, created.SessionID.Empty())

	sessions, err := patientAPI.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 5)

	err = patientAPI.UpdateSessionStatus(ctx, created.SessionID, models.StatusCompleted)
	assert.Equal(t, http.StatusForbidden, apiclient.StatusOf(err))

	require.NoError(t, therapistAPI.UpdateSessionStatus(ctx, created.SessionID, models.StatusCompleted))
	sessions, err = therapistAPI.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, sessions[len(sessions)-1].Status)

	err = therapistAPI.UpdateSessionStatus(ctx, "9999", models.StatusCompleted)
	assert.Equal(t, "Session not found", detailOf(t, err))
}

func TestCreateSession_PatientBooksOnlyForSelf(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()
	patientAPI, _ := env.signIn(t, SeedPatient)
	_, therapist := env.signIn(t, SeedTherapist)

	_, err := patientAPI.CreateSession(ctx, models.NewAppointment{
		Reason: "x", Time: "2030-03-04T15:30:00Z", PatientID: "someone-else", TherapistID: therapist.UserID,
	})
	assert.Equal(t, http.StatusForbidden, apiclient.StatusOf(err))
}

func TestCreateTherapist(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()
	adminAPI, _ := env.signIn(t, SeedAdmin)
	patientAPI, _ := env.signIn(t, SeedPatient)

	req := models.NewTherapist{
		Email: "new.therapist@iris.local", FirstName: "Lena", LastName: "Berg",
		PhoneNumber: "+15559876543", DateOfBirth: "1988-02-02", Specialization: "Grief",
	}
	rec, err := adminAPI.CreateTherapist(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Grief", rec.Specialization)
	assert.Equal(t, "therapist", rec.Role)

	_, err = adminAPI.CreateTherapist(ctx, req)
	assert.Equal(t, "Email or phone number already in use", detailOf(t, err))

	req.Email = "other@iris.local"
	_, err = patientAPI.CreateTherapist(ctx, req)
	assert.Equal(t, http.StatusForbidden, apiclient.StatusOf(err))

	therapists, err := adminAPI.ListTherapists(ctx)
	require.NoError(t, err)
	assert.Len(t, therapists, 3)
}

func TestDirectories(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()
	api, _ := env.signIn(t, SeedAdmin)

	users, err := api.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 5)
	patients, err := api.ListPatients(ctx)
	require.NoError(t, err)
	assert.Len(t, patients, 2)
	for _, p := range patients {
		assert.Equal(t, "patient", p.Role)
		assert.False(t, p.UserID.Empty())
	}
}

func TestAuthMiddleware_RejectsMissingAndForgedTokens(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	_, err := env.api.ListUsers(ctx)
	assert.True(t, apiclient.IsUnauthorized(err))

	forged := NewTokenIssuer("another-secret", time.Hour)
	token, err := forged.Issue(&User{ID: "x", Role: "admin"})
	require.NoError(t, err)
	_, err = env.api.WithCredential(models.Credential(token)).ListUsers(ctx)
	assert.True(t, apiclient.IsUnauthorized(err))
}

func TestRateLimit_ThrottlesOTPEndpoints(t *testing.T) {
	env := newTestEnv(t, Config{LoginRatePerMin: 2})
	ctx := context.Background()
	creds := apiclient.Credentials{Email: SeedPatient.Email, Password: SeedPatient.Password}

	require.NoError(t, env.api.Login(ctx, creds))
	require.NoError(t, env.api.Login(ctx, creds))
	err := env.api.Login(ctx, creds)
	assert.Equal(t, http.StatusTooManyRequests, apiclient.StatusOf(err))
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue(&User{ID: "u1", Role: "therapist"})
	require.NoError(t, err)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "therapist", claims.Role)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Validate(token)
	assert.Error(t, err)
}

func TestNewMailer(t *testing.T) {
	m, err := NewMailer(MailerConfig{Transport: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryMailer{}, m)

	_, err = NewMailer(MailerConfig{Transport: "resend"}, nil)
	assert.Error(t, err)
	_, err = NewMailer(MailerConfig{Transport: "pigeon"}, nil)
	assert.Error(t, err)
}
