package viewmodel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"iris-therapy-portal/internal/feedback"
	"iris-therapy-portal/internal/models"
)

// Source is the read side of the backend the builder projects from.
type Source interface {
	ListSessions(ctx context.Context) ([]models.AppointmentRecord, error)
	ListUsers(ctx context.Context) ([]models.UserRecord, error)
	ListTherapists(ctx context.Context) ([]models.UserRecord, error)
	ListPatients(ctx context.Context) ([]models.UserRecord, error)
}

// Mutator is the write side.
type Mutator interface {
	CreateSession(ctx context.Context, a models.NewAppointment) (*models.AppointmentRecord, error)
	UpdateSessionStatus(ctx context.Context, id models.ID, status models.AppointmentStatus) error
}

// Gateway is everything the builder needs from the backend.
type Gateway interface {
	Source
	Mutator
}

// Builder assembles dashboard view-models. Every call fetches fresh data; no
// state survives between calls.
type Builder struct {
	gw  Gateway
	loc *time.Location
}

// NewBuilder returns a Builder composing times in loc.
func NewBuilder(gw Gateway, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.Local
	}
	return &Builder{gw: gw, loc: loc}
}

// Board is a role-scoped set of sessions ready for the calendar and tables.
type Board struct {
	Scope  Scope
	Events []CalendarEvent
	Rows   []SessionRow
	// Skipped counts records whose date or time could not be read.
	Skipped int
}

// Board fetches sessions and the directories needed to name them, filters by
// the identity's scope, then joins. Fetches run concurrently; the first
// failure cancels the rest.
func (b *Builder) Board(ctx context.Context, identity models.Identity) (*Board, error) {
	scope := ScopeFor(identity)
	needPatients, needTherapists := scope.counterparts()

	var (
		sessions             []models.AppointmentRecord
		patients, therapists []models.UserRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sessions, err = b.gw.ListSessions(gctx)
		return err
	})
	if needPatients {
		g.Go(func() error {
			var err error
			patients, err = b.gw.ListPatients(gctx)
			return err
		})
	}
	if needTherapists {
		g.Go(func() error {
			var err error
			therapists, err = b.gw.ListTherapists(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build board: %w", err)
	}

	joined := Join(scope.Filter(sessions), NewDirectory(patients), NewDirectory(therapists))

	board := &Board{Scope: scope}
	for _, j := range joined {
		start, err := ComposeStart(j.Record.Date, j.Record.Time, b.loc)
		if err != nil {
			board.Skipped++
			continue
		}
		board.Events = append(board.Events, newEvent(scope.Role, j, start))
		board.Rows = append(board.Rows, newSessionRow(j, start))
	}
	sort.SliceStable(board.Rows, func(i, k int) bool {
		return board.Rows[i].Start.Before(board.Rows[k].Start)
	})
	return board, nil
}

// Upcoming returns the board's rows starting at or after now.
func (bd *Board) Upcoming(now time.Time) []SessionRow {
	var out []SessionRow
	for _, r := range bd.Rows {
		if !r.Start.Before(now) {
			out = append(out, r)
		}
	}
	return out
}

// Stats are the admin dashboard's headline counts.
type Stats struct {
	Users        int
	Therapists   int
	Patients     int
	Appointments int
}

var statsMessages = feedback.Table{Fallback: "Failed to load data."}

// Stats fetches the four collections concurrently. Any failure fails the
// whole batch; there is no partial result.
func (b *Builder) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := b.gw.ListUsers(gctx)
		s.Users = len(users)
		return err
	})
	g.Go(func() error {
		therapists, err := b.gw.ListTherapists(gctx)
		s.Therapists = len(therapists)
		return err
	})
	g.Go(func() error {
		patients, err := b.gw.ListPatients(gctx)
		s.Patients = len(patients)
		return err
	})
	g.Go(func() error {
		sessions, err := b.gw.ListSessions(gctx)
		s.Appointments = len(sessions)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, statsMessages.Resolve(err)
	}
	return &s, nil
}

// DirectoryKind selects which user collection a directory table lists.
type DirectoryKind uint8

const (
	DirectoryUsers DirectoryKind = iota
	DirectoryTherapists
	DirectoryPatients
)

// Directory lists one user collection as table rows, filtered by search.
func (b *Builder) Directory(ctx context.Context, kind DirectoryKind, search string, match MatchFunc) ([]UserRow, error) {
	var (
		users []models.UserRecord
		err   error
	)
	switch kind {
	case DirectoryUsers:
		users, err = b.gw.ListUsers(ctx)
	case DirectoryTherapists:
		users, err = b.gw.ListTherapists(ctx)
	case DirectoryPatients:
		users, err = b.gw.ListPatients(ctx)
	default:
		return nil, fmt.Errorf("unknown directory kind %d", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}
	return FilterRows(NewUserRows(users), search, match), nil
}

// TherapistOption is one choice in the booking form.
type TherapistOption struct {
	ID             models.ID `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
}

// BookingOptions feeds the new-appointment form.
type BookingOptions struct {
	Specializations []string          `json:"specializations"`
	Therapists      []TherapistOption `json:"therapists"`
}

// TherapistsFor returns the therapists offering specialization.
func (o *BookingOptions) TherapistsFor(specialization string) []TherapistOption {
	var out []TherapistOption
	for _, t := range o.Therapists {
		if t.Specialization == specialization {
			out = append(out, t)
		}
	}
	return out
}

// BookingOptions fetches therapists afresh and lists their distinct
// specializations in first-seen order.
func (b *Builder) BookingOptions(ctx context.Context) (*BookingOptions, error) {
	therapists, err := b.gw.ListTherapists(ctx)
	if err != nil {
		return nil, fmt.Errorf("load booking options: %w", err)
	}
	opts := &BookingOptions{Specializations: []string{}, Therapists: []TherapistOption{}}
	seen := make(map[string]bool)
	for _, t := range therapists {
		if t.Specialization != "" && !seen[t.Specialization] {
			seen[t.Specialization] = true
			opts.Specializations = append(opts.Specializations, t.Specialization)
		}
		name := t.FullName()
		if name == "" {
			name = t.Username
		}
		opts.Therapists = append(opts.Therapists, TherapistOption{ID: t.UserID, Name: name, Specialization: t.Specialization})
	}
	return opts, nil
}

// BookingForm is the new-appointment submission. Start is a datetime-local
// value in the clinic's zone.
type BookingForm struct {
	Reason         string `form:"reason" json:"reason"`
	Start          string `form:"start" json:"start"`
	Specialization string `form:"specialization" json:"specialization"`
	TherapistID    string `form:"therapist_id" json:"therapistID"`
}

const (
	msgFillAll      = "Please fill all fields!"
	msgInvalidStart = "Invalid start date and time!"
	msgNoIdentity   = "User information not found. Please log in again."
)

var bookMessages = feedback.Table{Fallback: "An error occurred while creating the appointment."}

var startLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// Book creates a session for the identity and returns a provisional event
// for immediate display.
func (b *Builder) Book(ctx context.Context, identity models.Identity, form BookingForm) (CalendarEvent, error) {
	if strings.TrimSpace(form.Reason) == "" || form.Specialization == "" || form.TherapistID == "" {
		return CalendarEvent{}, feedback.Validation(msgFillAll)
	}
	start, ok := parseStart(form.Start, b.loc)
	if !ok {
		return CalendarEvent{}, feedback.Validation(msgInvalidStart)
	}
	if identity.UserID.Empty() {
		return CalendarEvent{}, feedback.Validation(msgNoIdentity)
	}

	req := models.NewAppointment{
		Reason:      strings.TrimSpace(form.Reason),
		Time:        start.UTC().Format(time.RFC3339),
		PatientID:   identity.UserID,
		TherapistID: models.ID(form.TherapistID),
	}
	created, err := b.gw.CreateSession(ctx, req)
	if err != nil {
		return CalendarEvent{}, bookMessages.Resolve(err)
	}

	ev := CalendarEvent{
		Title:       "Session for " + identity.FirstName,
		Start:       start,
		End:         start.Add(SessionLength),
		Status:      models.StatusPending,
		Reason:      req.Reason,
		PatientID:   req.PatientID,
		TherapistID: req.TherapistID,
		Provisional: true,
	}
	if created != nil {
		ev.SessionID = created.SessionID
		if created.Status != "" {
			ev.Status = created.Status
		}
	}
	return ev, nil
}

func parseStart(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var statusMessages = feedback.Table{Fallback: "Failed to update status."}

// UpdateStatus sets the status of session id.
func (b *Builder) UpdateStatus(ctx context.Context, id models.ID, status string) error {
	st, err := models.ParseAppointmentStatus(status)
	if err != nil || id.Empty() {
		return feedback.Validation(statusMessages.Fallback)
	}
	if err := b.gw.UpdateSessionStatus(ctx, id, st); err != nil {
		return statusMessages.Resolve(err)
	}
	return nil
}
