package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"iris-therapy-portal/internal/apiclient"
	"iris-therapy-portal/internal/feedback"
	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/models"
	"iris-therapy-portal/internal/utils"
	"iris-therapy-portal/internal/viewmodel"
)

const (
	msgAppointmentCreated = "Appointment created successfully!"
	msgStatusUpdated      = "Status updated successfully!"
)

// AppointmentHandler serves calendars, session tables, booking and status
// changes. Every page refetches; nothing is cached between requests.
type AppointmentHandler struct {
	backend
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(api *apiclient.Client, loc *time.Location, logger *logging.Logger) *AppointmentHandler {
	return &AppointmentHandler{backend: newBackend(api, loc, logger)}
}

// bookingPanel is the new-appointment form state on the patient calendar.
type bookingPanel struct {
	Open    bool
	Error   string
	Options *viewmodel.BookingOptions
}

// Calendar renders the role's calendar page. Patients also get the booking
// form; therapists get a status selector per session.
func (h *AppointmentHandler) Calendar(c *gin.Context) {
	identity := currentIdentity(c)
	data := gin.H{
		"EventsURL": strings.TrimSuffix(c.Request.URL.Path, "/") + "/events",
		"Statuses":  models.AppointmentStatuses,
	}
	switch identity.Role {
	case models.RoleAdmin:
		data["Title"] = "Appointments"
		data["Subtitle"] = "All sessions booked across the clinic."
	case models.RoleTherapist:
		data["Title"] = "Sessions"
		data["Subtitle"] = "Manage your upcoming sessions and appointments with patients."
		data["StatusForms"] = true
	case models.RolePatient:
		data["Title"] = "My Appointments"
		data["Subtitle"] = "Easily manage and book appointments with our therapists."
	case models.RoleUnknown:
		c.Redirect(http.StatusFound, "/signin")
		return
	}

	board, err := h.builder(c).Board(c.Request.Context(), identity)
	if err != nil {
		msg, done := h.loadFailed(c, err, msgFetchAppointments)
		if done {
			return
		}
		data["Error"] = msg
	} else {
		data["Events"] = board.Events
		if board.Skipped > 0 {
			h.Logger.Warn("sessions with unreadable date or time skipped", "count", board.Skipped)
		}
	}

	if identity.Role == models.RolePatient {
		panel := bookingPanel{Open: c.Query("book") != ""}
		if panel.Open {
			opts, err := h.builder(c).BookingOptions(c.Request.Context())
			if err != nil {
				msg, done := h.loadFailed(c, err, msgFetchTherapists)
				if done {
					return
				}
				panel.Error = msg
			}
			panel.Options = opts
		}
		data["Booking"] = panel
	}
	render(c, http.StatusOK, "calendar", data)
}

// Events is the calendar widget's JSON feed.
func (h *AppointmentHandler) Events(c *gin.Context) {
	board, err := h.builder(c).Board(c.Request.Context(), currentIdentity(c))
	if err != nil {
		if expired(c, err, h.Logger) {
			return
		}
		h.Logger.Error("load events failed", "error", err)
		utils.Error(c, http.StatusBadGateway, msgFetchAppointments)
		return
	}
	events := board.Events
	if events == nil {
		events = []viewmodel.CalendarEvent{}
	}
	utils.Success(c, events)
}

// BookingOptions lists specializations and therapists for the booking form.
// With ?specialization= only matching therapists are returned. Each call
// fetches therapists afresh.
func (h *AppointmentHandler) BookingOptions(c *gin.Context) {
	opts, err := h.builder(c).BookingOptions(c.Request.Context())
	if err != nil {
		if expired(c, err, h.Logger) {
			return
		}
		h.Logger.Error("load booking options failed", "error", err)
		utils.Error(c, http.StatusBadGateway, msgFetchTherapists)
		return
	}
	if want := c.Query("specialization"); want != "" {
		opts.Therapists = opts.TherapistsFor(want)
		if opts.Therapists == nil {
			opts.Therapists = []viewmodel.TherapistOption{}
		}
	}
	utils.Success(c, opts)
}

// Book creates a session for the signed-in patient. JSON callers get the
// provisional calendar event back; form posts redirect to the calendar, which
// refetches and so shows the confirmed record.
func (h *AppointmentHandler) Book(c *gin.Context) {
	var form viewmodel.BookingForm
	asJSON := c.ContentType() == gin.MIMEJSON
	var bindErr error
	if asJSON {
		bindErr = c.ShouldBindJSON(&form)
	} else {
		bindErr = c.ShouldBind(&form)
	}

	event, err := h.bookWith(c, form, bindErr)
	if err != nil {
		if expired(c, err, h.Logger) {
			return
		}
		if !feedback.IsValidation(err) {
			h.Logger.Error("create appointment failed", "error", err)
		}
		msg := feedback.Failure(err, "Failed to create the appointment.").Message
		if asJSON {
			if feedback.IsValidation(err) {
				utils.Unprocessable(c, msg)
			} else {
				utils.Error(c, http.StatusBadGateway, msg)
			}
			return
		}
		redirectWith(c, "/patient/appointments?book=1", feedback.Notice{Level: feedback.LevelError, Message: msg})
		return
	}

	h.Logger.Info("appointment created", "session_id", event.SessionID, "therapist_id", event.TherapistID)
	if asJSON {
		utils.Created(c, event)
		return
	}
	redirectWith(c, "/patient/appointments", feedback.Success(msgAppointmentCreated))
}

func (h *AppointmentHandler) bookWith(c *gin.Context, form viewmodel.BookingForm, bindErr error) (viewmodel.CalendarEvent, error) {
	if bindErr != nil {
		return viewmodel.CalendarEvent{}, feedback.Validation("Please fill all fields!")
	}
	return h.builder(c).Book(c.Request.Context(), currentIdentity(c), form)
}

// UpdateStatus sets a session's status from the therapist calendar. The
// session is addressed by its backend id, never a display index.
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	id := models.ID(c.Param("id"))
	err := h.builder(c).UpdateStatus(c.Request.Context(), id, c.PostForm("status"))
	if err != nil {
		if expired(c, err, h.Logger) {
			return
		}
		h.Logger.Error("update status failed", "session_id", id, "error", err)
		redirectWith(c, "/therapist/sessions", feedback.Failure(err, "Failed to update status."))
		return
	}
	redirectWith(c, "/therapist/sessions", feedback.Success(msgStatusUpdated))
}

// History renders the session history table. Therapists see patient names;
// patients see therapist names and specializations.
func (h *AppointmentHandler) History(c *gin.Context) {
	identity := currentIdentity(c)
	query := c.Query("q")
	data := gin.H{
		"Title":       "Session History",
		"Query":       query,
		"ShowPatient": identity.Role != models.RolePatient,
	}
	board, err := h.builder(c).Board(c.Request.Context(), identity)
	if err != nil {
		msg, done := h.loadFailed(c, err, msgFetchAppointments)
		if done {
			return
		}
		data["Error"] = msg
	} else {
		data["Rows"] = viewmodel.FilterSessions(board.Rows, query)
	}
	render(c, http.StatusOK, "sessions", data)
}
