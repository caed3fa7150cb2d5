package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"iris-therapy-portal/internal/guard"
	"iris-therapy-portal/internal/models"
	"iris-therapy-portal/internal/session"
)

const (
	sessionKey  = "session"
	identityKey = "identity"
)

// SessionBinder produces the per-request session store.
type SessionBinder interface {
	Bind(w http.ResponseWriter, r *http.Request) *session.CookieStore
}

// Session binds one session store to every request. Handlers reach it through
// SessionFrom and never read cookies themselves.
func Session(binder SessionBinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionKey, session.Store(binder.Bind(c.Writer, c.Request)))
		c.Next()
	}
}

// WithStore binds a fixed store instead of cookies.
func WithStore(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionKey, store)
		c.Next()
	}
}

// SessionFrom returns the store bound by Session. It panics when the
// middleware is missing, which is a wiring bug.
func SessionFrom(c *gin.Context) session.Store {
	return c.MustGet(sessionKey).(session.Store)
}

// RequireRole guards a dashboard route group. Requests without a credential,
// or whose identity has a different role, are redirected to sign-in before any
// handler runs.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := SessionFrom(c)
		decision := guard.Evaluate(store, role)
		if !decision.Allowed {
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
			return
		}
		identity, _ := store.Identity()
		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity admitted by RequireRole.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}
