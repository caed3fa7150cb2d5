package models

import (
	"fmt"
	"strings"
)

// AppointmentStatus represents the status of a therapy session.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "Pending"
	StatusCompleted AppointmentStatus = "Completed"
	StatusCancelled AppointmentStatus = "Cancelled"
)

// AppointmentStatuses lists the statuses a therapist can set.
var AppointmentStatuses = []AppointmentStatus{StatusPending, StatusCompleted, StatusCancelled}

// ParseAppointmentStatus matches s case-insensitively against the known statuses.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	for _, st := range AppointmentStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// AppointmentRecord is a session as returned by GET /session.
type AppointmentRecord struct {
	SessionID   ID                `json:"sessionID"`
	PatientID   ID                `json:"patientID"`
	TherapistID ID                `json:"therapistID"`
	Date        string            `json:"date"`
	Time        string            `json:"time"`
	Reason      string            `json:"reason"`
	Status      AppointmentStatus `json:"status"`
	Description string            `json:"description"`
}

// NewAppointment is the body of POST /sessions. Time is RFC 3339.
type NewAppointment struct {
	Reason      string `json:"reason"`
	Time        string `json:"time"`
	PatientID   ID     `json:"patientID"`
	TherapistID ID     `json:"therapistID"`
}

// StatusUpdate is the body of PATCH /session/{id}.
type StatusUpdate struct {
	Status AppointmentStatus `json:"status"`
}
