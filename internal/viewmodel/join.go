package viewmodel

import "iris-therapy-portal/internal/models"

// Placeholders used when a session references a user that was not fetched.
const (
	UnknownPatient        = "Unknown Patient"
	UnknownTherapist      = "Unknown Therapist"
	UnknownSpecialization = "Unknown"
)

// Directory indexes users by userID for joining.
type Directory map[models.ID]models.UserRecord

// NewDirectory indexes users. Later duplicates win.
func NewDirectory(users []models.UserRecord) Directory {
	d := make(Directory, len(users))
	for _, u := range users {
		if !u.UserID.Empty() {
			d[u.UserID] = u
		}
	}
	return d
}

// Name returns the full name for id, or placeholder when id is not indexed.
func (d Directory) Name(id models.ID, placeholder string) string {
	u, ok := d[id]
	if !ok {
		return placeholder
	}
	if name := u.FullName(); name != "" {
		return name
	}
	return placeholder
}

// Specialization returns the therapist's specialization or "Unknown".
func (d Directory) Specialization(id models.ID) string {
	u, ok := d[id]
	if !ok || u.Specialization == "" {
		return UnknownSpecialization
	}
	return u.Specialization
}

// Joined is one session with its counterpart names resolved.
type Joined struct {
	Record         models.AppointmentRecord
	PatientName    string
	TherapistName  string
	Specialization string
}

// Join resolves patient and therapist names by exact id match. Missing
// references become placeholders, never errors.
func Join(recs []models.AppointmentRecord, patients, therapists Directory) []Joined {
	out := make([]Joined, 0, len(recs))
	for _, r := range recs {
		out = append(out, Joined{
			Record:         r,
			PatientName:    patients.Name(r.PatientID, UnknownPatient),
			TherapistName:  therapists.Name(r.TherapistID, UnknownTherapist),
			Specialization: therapists.Specialization(r.TherapistID),
		})
	}
	return out
}
