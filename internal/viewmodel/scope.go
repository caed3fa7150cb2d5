// Package viewmodel turns backend session and user records into the calendar
// events, table rows and stat cards each dashboard renders.
package viewmodel

import "iris-therapy-portal/internal/models"

// Scope restricts which sessions a dashboard may show.
type Scope struct {
	Role   models.Role
	UserID models.ID
}

// ScopeFor derives the scope of identity's dashboard.
func ScopeFor(identity models.Identity) Scope {
	return Scope{Role: identity.Role, UserID: identity.UserID}
}

// Includes reports whether rec belongs on this scope's dashboard. Admins see
// everything; therapists and patients only their own sessions.
func (s Scope) Includes(rec models.AppointmentRecord) bool {
	switch s.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTherapist:
		return !s.UserID.Empty() && rec.TherapistID == s.UserID
	case models.RolePatient:
		return !s.UserID.Empty() && rec.PatientID == s.UserID
	case models.RoleUnknown:
		return false
	}
	return false
}

// Filter keeps the records Includes accepts, preserving order.
func (s Scope) Filter(recs []models.AppointmentRecord) []models.AppointmentRecord {
	out := make([]models.AppointmentRecord, 0, len(recs))
	for _, r := range recs {
		if s.Includes(r) {
			out = append(out, r)
		}
	}
	return out
}

// counterparts lists which directories a scope joins against.
func (s Scope) counterparts() (patients, therapists bool) {
	switch s.Role {
	case models.RoleAdmin:
		return true, true
	case models.RoleTherapist:
		return true, false
	case models.RolePatient:
		return false, true
	case models.RoleUnknown:
		return false, false
	}
	return false, false
}
