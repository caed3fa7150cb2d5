package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"iris-therapy-portal/internal/apiclient"
	"iris-therapy-portal/internal/auth"
	"iris-therapy-portal/internal/feedback"
	"iris-therapy-portal/internal/guard"
	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/middleware"
	"iris-therapy-portal/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

//go:embed content/resources.md
var resourcesMarkdown []byte

// LoadTemplates parses the embedded page templates.
func LoadTemplates() (*template.Template, error) {
	tmpl, err := template.New("portal").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// StaticFiles serves the embedded stylesheet.
func StaticFiles() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

const msgSessionExpired = "Your session has expired. Please sign in again."

// render writes a page with the shared layout data: the pending notice, the
// signed-in identity and the CSRF field.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	store := middleware.SessionFrom(c)
	if n, ok := store.TakeNotice(); ok {
		data["Notice"] = n
	}
	if _, ok := data["Identity"]; !ok {
		if id, ok := store.Identity(); ok {
			data["Identity"] = id
		}
	}
	data["CSRFField"] = csrf.TemplateField(c.Request)
	c.HTML(status, name, data)
}

// redirectWith queues notice and sends the browser to location.
func redirectWith(c *gin.Context, location string, n feedback.Notice) {
	_ = middleware.SessionFrom(c).SetNotice(n)
	c.Redirect(http.StatusSeeOther, location)
}

// credentialed returns the client bound to the session's credential.
func credentialed(c *gin.Context, api *apiclient.Client) *apiclient.Client {
	cred, _ := middleware.SessionFrom(c).Credential()
	return api.WithCredential(cred)
}

// currentIdentity is the identity RequireRole admitted, falling back to the
// store for routes outside a guarded group.
func currentIdentity(c *gin.Context) models.Identity {
	if id, ok := middleware.IdentityFrom(c); ok {
		return id
	}
	id, _ := middleware.SessionFrom(c).Identity()
	return id
}

// expired handles an upstream 401: the stored credential is dead, so the
// session is dropped and the user signs in again. It reports whether it wrote
// the response.
func expired(c *gin.Context, err error, logger *logging.Logger) bool {
	if !apiclient.IsUnauthorized(err) {
		return false
	}
	store := middleware.SessionFrom(c)
	_ = store.ClearSession()
	logger.Info("credential rejected upstream", "path", c.Request.URL.Path)
	if wantsJSON(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": msgSessionExpired})
		return true
	}
	redirectWith(c, guard.SignInPath, feedback.Notice{Level: feedback.LevelError, Message: msgSessionExpired})
	return true
}

func wantsJSON(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEJSON || c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

// otpBoxes renders six empty code boxes.
func otpBoxes() []string { return make([]string, auth.OTPLength) }
