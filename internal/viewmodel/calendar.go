package viewmodel

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"iris-therapy-portal/internal/models"
)

// SessionLength is the fixed duration of every therapy session.
const SessionLength = time.Hour

// LocalLayout is how event times are sent to the calendar widget: wall clock
// in the clinic's zone, no offset.
const LocalLayout = "2006-01-02T15:04:05"

// ComposeStart combines a session's date and time-of-day in loc. A date that
// already carries a time keeps only its YYYY-MM-DD part when clock is given;
// with no clock it is read as a full RFC 3339 timestamp.
func ComposeStart(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	if clock == "" {
		if t, err := time.Parse(time.RFC3339, date); err == nil {
			return t.In(loc), nil
		}
		clock = "00:00:00"
	}
	if len(date) > len(time.DateOnly) {
		date = date[:len(time.DateOnly)]
	}
	if strings.Count(clock, ":") == 1 {
		clock += ":00"
	}
	if i := strings.IndexAny(clock, ".Z+"); i > 0 {
		clock = clock[:i]
	}

	t, err := time.ParseInLocation(time.DateTime, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("compose start from %q %q: %w", date, clock, err)
	}
	return t, nil
}

// CalendarEvent is one block on a dashboard calendar. Provisional events were
// appended locally after a booking and are dropped by the next fetch.
type CalendarEvent struct {
	Title       string
	Start       time.Time
	End         time.Time
	Status      models.AppointmentStatus
	Reason      string
	Description string
	SessionID   models.ID
	PatientID   models.ID
	TherapistID models.ID
	Provisional bool
}

// MarshalJSON renders the event in the shape the calendar widget reads.
func (e CalendarEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Title       string                   `json:"title"`
		Start       string                   `json:"start"`
		End         string                   `json:"end"`
		Status      models.AppointmentStatus `json:"status,omitempty"`
		Reason      string                   `json:"reason,omitempty"`
		Description string                   `json:"description,omitempty"`
		SessionID   models.ID                `json:"sessionID,omitempty"`
		PatientID   models.ID                `json:"patientID,omitempty"`
		TherapistID models.ID                `json:"therapistID,omitempty"`
		Provisional bool                     `json:"provisional,omitempty"`
	}{
		Title:       e.Title,
		Start:       e.Start.Format(LocalLayout),
		End:         e.End.Format(LocalLayout),
		Status:      e.Status,
		Reason:      e.Reason,
		Description: e.Description,
		SessionID:   e.SessionID,
		PatientID:   e.PatientID,
		TherapistID: e.TherapistID,
		Provisional: e.Provisional,
	})
}

// eventTitle is the calendar label for a joined session on role's dashboard.
func eventTitle(role models.Role, j Joined) string {
	switch role {
	case models.RolePatient:
		return "Session with " + j.TherapistName
	case models.RoleTherapist:
		return j.Record.Reason + " - " + j.PatientName
	case models.RoleAdmin:
		return j.PatientName + " with " + j.TherapistName
	case models.RoleUnknown:
		return j.Record.Reason
	}
	return j.Record.Reason
}

func newEvent(role models.Role, j Joined, start time.Time) CalendarEvent {
	return CalendarEvent{
		Title:       eventTitle(role, j),
		Start:       start,
		End:         start.Add(SessionLength),
		Status:      j.Record.Status,
		Reason:      j.Record.Reason,
		Description: j.Record.Description,
		SessionID:   j.Record.SessionID,
		PatientID:   j.Record.PatientID,
		TherapistID: j.Record.TherapistID,
	}
}
