package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"iris-therapy-portal/internal/apiclient"
	"iris-therapy-portal/internal/feedback"
	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/models"
	"iris-therapy-portal/internal/viewmodel"
)

const (
	msgFetchAppointments = "Failed to fetch appointments"
	msgFetchTherapists   = "Failed to fetch therapists."
	msgFetchUsers        = "Error fetching users"
)

// backend is what every dashboard handler shares: the upstream client, the
// clinic time zone and a clock.
type backend struct {
	API      *apiclient.Client
	Location *time.Location
	Logger   *logging.Logger
	Now      func() time.Time
}

func newBackend(api *apiclient.Client, loc *time.Location, logger *logging.Logger) backend {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return backend{API: api, Location: loc, Logger: logger, Now: time.Now}
}

// builder returns a view-model builder bound to the caller's credential.
func (b backend) builder(c *gin.Context) *viewmodel.Builder {
	return viewmodel.NewBuilder(credentialed(c, b.API), b.Location)
}

// loadFailed logs err and returns the message to show in its place. The
// second result is true when the response was already written because the
// credential expired.
func (b backend) loadFailed(c *gin.Context, err error, fallback string) (string, bool) {
	if expired(c, err, b.Logger) {
		return "", true
	}
	b.Logger.Error("upstream fetch failed", "path", c.Request.URL.Path, "error", err)
	return feedback.Failure(err, fallback).Message, false
}

// DashboardHandler serves the three role home pages.
type DashboardHandler struct {
	backend
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(api *apiclient.Client, loc *time.Location, logger *logging.Logger) *DashboardHandler {
	return &DashboardHandler{backend: newBackend(api, loc, logger)}
}

// Admin renders the stat cards. The four counts load together or not at all.
func (h *DashboardHandler) Admin(c *gin.Context) {
	data := gin.H{"Title": "Admin Dashboard"}
	stats, err := h.builder(c).Stats(c.Request.Context())
	if err != nil {
		msg, done := h.loadFailed(c, err, "Failed to load data.")
		if done {
			return
		}
		data["StatsError"] = msg
	} else {
		data["Stats"] = stats
	}
	render(c, http.StatusOK, "admin_home", data)
}

// Patient renders upcoming sessions for the signed-in patient.
func (h *DashboardHandler) Patient(c *gin.Context) {
	data := gin.H{"Title": "Patient Dashboard"}
	board, err := h.builder(c).Board(c.Request.Context(), currentIdentity(c))
	if err != nil {
		msg, done := h.loadFailed(c, err, msgFetchAppointments)
		if done {
			return
		}
		data["Error"] = msg
	} else {
		data["Rows"] = board.Upcoming(h.Now().In(h.Location))
	}
	render(c, http.StatusOK, "patient_home", data)
}

// SessionSummary counts a therapist's sessions by status.
type SessionSummary struct {
	Total     int
	Pending   int
	Completed int
	Cancelled int
}

func summarize(rows []viewmodel.SessionRow) SessionSummary {
	s := SessionSummary{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusCompleted:
			s.Completed++
		case models.StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

// Therapist renders the therapist's session summary.
func (h *DashboardHandler) Therapist(c *gin.Context) {
	data := gin.H{"Title": "Therapist Dashboard", "Summary": SessionSummary{}}
	board, err := h.builder(c).Board(c.Request.Context(), currentIdentity(c))
	if err != nil {
		msg, done := h.loadFailed(c, err, msgFetchAppointments)
		if done {
			return
		}
		data["Error"] = msg
	} else {
		data["Summary"] = summarize(board.Rows)
	}
	render(c, http.StatusOK, "therapist_home", data)
}
