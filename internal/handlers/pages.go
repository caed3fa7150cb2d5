package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// PageHandler serves the static content pages.
type PageHandler struct {
	resources template.HTML
}

// NewPageHandler renders the embedded resources markdown once.
func NewPageHandler() (*PageHandler, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(resourcesMarkdown, &buf); err != nil {
		return nil, fmt.Errorf("render resources: %w", err)
	}
	// The markdown is embedded at build time, never user supplied.
	return &PageHandler{resources: template.HTML(buf.String())}, nil
}

// Resources renders the patient resources page.
func (h *PageHandler) Resources(c *gin.Context) {
	render(c, http.StatusOK, "resources", gin.H{"Title": "Resources", "Body": h.resources})
}

// Support renders the support page. The form posts back to the same path.
func (h *PageHandler) Support(c *gin.Context) {
	render(c, http.StatusOK, "support", gin.H{"Title": "Support", "SupportAction": c.Request.URL.Path})
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
