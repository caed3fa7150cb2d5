package viewmodel

import (
	"strconv"
	"strings"
	"time"

	"iris-therapy-portal/internal/models"
)

const notAvailable = "N/A"

// Display layouts for table cells.
const (
	RowDateLayout = "Jan 2, 2006"
	RowTimeLayout = "15:04"
)

// SessionRow is one line of a session table.
type SessionRow struct {
	SessionID      models.ID
	Reason         string
	Date           string
	Time           string
	PatientName    string
	TherapistName  string
	Specialization string
	Status         models.AppointmentStatus
	Description    string
	Start          time.Time
}

func newSessionRow(j Joined, start time.Time) SessionRow {
	return SessionRow{
		SessionID:      j.Record.SessionID,
		Reason:         j.Record.Reason,
		Date:           start.Format(RowDateLayout),
		Time:           start.Format(RowTimeLayout),
		PatientName:    j.PatientName,
		TherapistName:  j.TherapistName,
		Specialization: j.Specialization,
		Status:         j.Record.Status,
		Description:    orNA(j.Record.Description),
		Start:          start,
	}
}

// UserRow is one line of a user directory table. ID is for display only:
// when the backend omits one it is the 1-based row index. Mutations use UserID.
type UserRow struct {
	ID             string
	UserID         models.ID
	Username       string
	Email          string
	FirstName      string
	LastName       string
	Role           string
	PhoneNumber    string
	DateOfBirth    string
	MedicalHistory string
	Specialization string
}

// FullName joins the name columns, skipping placeholders.
func (r UserRow) FullName() string {
	var parts []string
	for _, p := range []string{r.FirstName, r.LastName} {
		if p != notAvailable && p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// NewUserRows projects users into table rows, filling blanks with "N/A".
func NewUserRows(users []models.UserRecord) []UserRow {
	rows := make([]UserRow, 0, len(users))
	for i, u := range users {
		id := u.ID.String()
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		rows = append(rows, UserRow{
			ID:             id,
			UserID:         u.UserID,
			Username:       orNA(u.Username),
			Email:          orNA(u.Email),
			FirstName:      orNA(u.FirstName),
			LastName:       orNA(u.LastName),
			Role:           orNA(u.Role),
			PhoneNumber:    orNA(u.PhoneNumber),
			DateOfBirth:    orNA(u.DateOfBirth),
			MedicalHistory: orNA(u.MedicalHistory),
			Specialization: orNA(u.Specialization),
		})
	}
	return rows
}

// MatchFunc reports whether row matches a lower-cased search query.
type MatchFunc func(row UserRow, query string) bool

// MatchUsername matches on the username column.
func MatchUsername(row UserRow, query string) bool {
	return containsFold(row.Username, query)
}

// MatchNameOrSpecialization matches on first name, last name or
// specialization.
func MatchNameOrSpecialization(row UserRow, query string) bool {
	return containsFold(row.FirstName, query) ||
		containsFold(row.LastName, query) ||
		containsFold(row.Specialization, query)
}

// FilterRows keeps rows that match query. An empty query keeps all rows.
func FilterRows(rows []UserRow, query string, match MatchFunc) []UserRow {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || match == nil {
		return rows
	}
	out := make([]UserRow, 0, len(rows))
	for _, r := range rows {
		if match(r, query) {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(s, lowerQuery string) bool {
	if s == notAvailable {
		return false
	}
	return strings.Contains(strings.ToLower(s), lowerQuery)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

// FilterSessions keeps rows whose date, counterpart names or status contain
// query, case-insensitively.
func FilterSessions(rows []SessionRow, query string) []SessionRow {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return rows
	}
	out := make([]SessionRow, 0, len(rows))
	for _, r := range rows {
		if containsFold(r.Date, query) ||
			containsFold(r.TherapistName, query) ||
			containsFold(r.PatientName, query) ||
			containsFold(string(r.Status), query) {
			out = append(out, r)
		}
	}
	return out
}
