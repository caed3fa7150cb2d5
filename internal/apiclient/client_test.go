package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	c, err := New(ts.URL+"/api", opts...)
	require.NoError(t, err)
	return c
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, method+" "+route+" "+http.StatusText(status))
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	_, err := New("/api")
	assert.Error(t, err)
}

func TestClient_AttachesBearerOnlyWithCredential(t *testing.T) {
	var gotAuth []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	_, err = c.WithCredential("tok-123").ListSessions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer tok-123"}, gotAuth)
}

func TestClient_RejectsAbsolutePath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	err := c.Do(context.Background(), http.MethodGet, "https://evil.example/session", nil, nil)
	assert.ErrorIs(t, err, ErrAbsolutePath)
}

func TestClient_VerifyLoginOTP(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/verify-login-otp", r.URL.Path)
		assert.Equal(t, "123456", r.URL.Query().Get("otp_code"))
		_, _ = w.Write([]byte(`{"access_token":"tok","user":{"userID":7,"role":"therapist","first_name":"Jane","last_name":"Doe","is_verified":true}}`))
	})

	resp, err := c.VerifyLoginOTP(context.Background(), "123456")
	require.NoError(t, err)

	assert.Equal(t, models.Credential("tok"), resp.AccessToken)
	assert.Equal(t, models.ID("7"), resp.User.UserID)
	assert.Equal(t, models.RoleTherapist, resp.User.Role)
	assert.Equal(t, "Jane Doe", resp.User.FullName())
}

func TestClient_ErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", http.StatusUnauthorized, `{"detail":"Invalid credentials"}`, "Invalid credentials"},
		{"list detail", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"bad email"}]}`, "field required; bad email"},
		{"message field", http.StatusConflict, `{"message":"Email already exists"}`, "Email already exists"},
		{"plain text", http.StatusBadGateway, "upstream failed", "upstream failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.Login(context.Background(), Credentials{Email: "a@b.co", Password: "x"})

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.ErrorDetail())
			assert.Equal(t, tt.status, StatusOf(err))
		})
	}
}

func TestClient_IsUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
	})

	_, err := c.ListPatients(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsUnauthorized(errors.New("other")))
}

func TestClient_UpdateSessionStatus(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/session/42", r.URL.Path)
		var body models.StatusUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, models.StatusCompleted, body.Status)
		w.WriteHeader(http.StatusOK)
	}, WithObserver(obs))

	require.NoError(t, c.WithCredential("t").UpdateSessionStatus(context.Background(), "42", models.StatusCompleted))
	assert.Equal(t, []string{"PATCH /session/:id OK"}, obs.calls)
}

func TestClient_UpdateProfileSendsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/u-1", r.URL.Path)
		assert.Equal(t, "+15551234567", r.URL.Query().Get("phone_number"))
		assert.Equal(t, "sam", r.URL.Query().Get("username"))
		_, _ = w.Write([]byte(`{"user":{"userID":"u-1","username":"sam","role":"patient","is_verified":true}}`))
	})

	got, err := c.UpdateProfile(context.Background(), "u-1", models.Profile{
		Username: "sam", FirstName: "Sam", LastName: "Lee", PhoneNumber: "+15551234567", DateOfBirth: "1990-01-01",
	})
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.Equal(t, models.RolePatient, got.Role)
}

func TestClient_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListTherapists(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/session/:id", routeLabel("/api/session/12", "/api"))
	assert.Equal(t, "/users/:id", routeLabel("/users/abc", ""))
	assert.Equal(t, "/therapists", routeLabel("/api/therapists", "/api"))
	assert.Equal(t, "/", routeLabel("/api", "/api"))
}
