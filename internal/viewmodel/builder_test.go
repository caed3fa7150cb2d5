package viewmodel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iris-therapy-portal/internal/feedback"
	"iris-therapy-portal/internal/models"
)

type fakeGateway struct {
	mu sync.Mutex

	sessions   []models.AppointmentRecord
	users      []models.UserRecord
	therapists []models.UserRecord
	patients   []models.UserRecord

	failOn  string
	created []models.NewAppointment
	updated map[models.ID]models.AppointmentStatus
	calls   map[string]int
}

func (f *fakeGateway) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	if f.failOn == name {
		return errors.New(name + " unavailable")
	}
	return nil
}

func (f *fakeGateway) ListSessions(context.Context) ([]models.AppointmentRecord, error) {
	return f.sessions, f.hit("sessions")
}

func (f *fakeGateway) ListUsers(context.Context) ([]models.UserRecord, error) {
	return f.users, f.hit("users")
}

func (f *fakeGateway) ListTherapists(context.Context) ([]models.UserRecord, error) {
	return f.therapists, f.hit("therapists")
}

func (f *fakeGateway) ListPatients(context.Context) ([]models.UserRecord, error) {
	return f.patients, f.hit("patients")
}

func (f *fakeGateway) CreateSession(_ context.Context, a models.NewAppointment) (*models.AppointmentRecord, error) {
	if err := f.hit("create"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, a)
	return &models.AppointmentRecord{SessionID: "99", Status: models.StatusPending}, nil
}

func (f *fakeGateway) UpdateSessionStatus(_ context.Context, id models.ID, st models.AppointmentStatus) error {
	if err := f.hit("update"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[models.ID]models.AppointmentStatus{}
	}
	f.updated[id] = st
	return nil
}

var utc = time.UTC

func clinicFixture() *fakeGateway {
	return &fakeGateway{
		sessions: []models.AppointmentRecord{
			{SessionID: "1", Date: "2024-05-01", Time: "10:00:00", Reason: "Checkup", PatientID: "P1", TherapistID: "T1", Status: models.StatusPending},
			{SessionID: "2", Date: "2024-05-02", Time: "09:30:00", Reason: "Follow-up", PatientID: "P2", TherapistID: "T1", Status: models.StatusCompleted},
			{SessionID: "3", Date: "2024-05-03", Time: "14:00:00", Reason: "Intake", PatientID: "P1", TherapistID: "T9", Status: models.StatusPending},
			{SessionID: "4", Date: "not-a-date", Time: "xx", Reason: "Broken", PatientID: "P1", TherapistID: "T1"},
		},
		therapists: []models.UserRecord{
			{UserID: "T1", FirstName: "Jane", LastName: "Doe", Specialization: "Psychology"},
			{UserID: "T2", FirstName: "Raj", LastName: "Patel", Specialization: "Family"},
			{UserID: "T3", FirstName: "Ana", LastName: "Lima", Specialization: "Psychology"},
		},
		patients: []models.UserRecord{
			{UserID: "P1", FirstName: "Pat", LastName: "Smith"},
			{UserID: "P2", FirstName: "Lee", LastName: "Wong"},
		},
		users: make([]models.UserRecord, 6),
	}
}

func TestScope_FilterKeepsOnlyOwnSessions(t *testing.T) {
	recs := clinicFixture().sessions

	for _, r := range (Scope{Role: models.RolePatient, UserID: "P1"}).Filter(recs) {
		assert.Equal(t, models.ID("P1"), r.PatientID)
	}
	for _, r := range (Scope{Role: models.RoleTherapist, UserID: "T1"}).Filter(recs) {
		assert.Equal(t, models.ID("T1"), r.TherapistID)
	}
	assert.Len(t, (Scope{Role: models.RoleAdmin}).Filter(recs), len(recs))
	assert.Empty(t, (Scope{Role: models.RoleUnknown, UserID: "P1"}).Filter(recs))
	assert.Empty(t, (Scope{Role: models.RolePatient}).Filter(recs), "empty user id matches nothing")
}

func TestBuilder_BoardRoundTrip(t *testing.T) {
	gw := clinicFixture()
	b := NewBuilder(gw, utc)

	board, err := b.Board(context.Background(), models.Identity{UserID: "P1", Role: models.RolePatient})
	require.NoError(t, err)

	require.Len(t, board.Events, 2)
	assert.Equal(t, 1, board.Skipped)
	assert.Zero(t, gw.calls["patients"], "patient boards only join therapists")

	ev := board.Events[0]
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, utc), ev.Start)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, utc), ev.End)
	assert.Contains(t, ev.Title, "Jane Doe")
	assert.Contains(t, board.Rows[0].TherapistName, "Jane Doe")
	assert.Equal(t, "Psychology", board.Rows[0].Specialization)

	for _, e := range board.Events {
		assert.Equal(t, 3600.0, e.End.Sub(e.Start).Seconds())
		assert.Equal(t, models.ID("P1"), e.PatientID)
	}

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Session with Jane Doe","start":"2024-05-01T10:00:00","end":"2024-05-01T11:00:00",
		"status":"Pending","reason":"Checkup","sessionID":"1","patientID":"P1","therapistID":"T1"}`, string(raw))
}

func TestBuilder_BoardUnknownTherapist(t *testing.T) {
	b := NewBuilder(clinicFixture(), utc)

	board, err := b.Board(context.Background(), models.Identity{UserID: "P1", Role: models.RolePatient})
	require.NoError(t, err)

	var row SessionRow
	for _, r := range board.Rows {
		if r.SessionID == "3" {
			row = r
		}
	}
	assert.Equal(t, UnknownTherapist, row.TherapistName)
	assert.Equal(t, UnknownSpecialization, row.Specialization)
	assert.Equal(t, "May 3, 2024", row.Date)
	assert.Equal(t, "14:00", row.Time)
	assert.Equal(t, "N/A", row.Description)
}

func TestBuilder_BoardTitlesByRole(t *testing.T) {
	b := NewBuilder(clinicFixture(), utc)
	ctx := context.Background()

	th, err := b.Board(ctx, models.Identity{UserID: "T1", Role: models.RoleTherapist})
	require.NoError(t, err)
	require.Len(t, th.Events, 2)
	assert.Equal(t, "Checkup - Pat Smith", th.Events[0].Title)

	admin, err := b.Board(ctx, models.Identity{UserID: "A1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, admin.Events, 3)
	assert.Equal(t, "Pat Smith with Jane Doe", admin.Events[0].Title)
	assert.Equal(t, "Pat Smith with Unknown Therapist", admin.Events[2].Title)
}

func TestBuilder_BoardFailure(t *testing.T) {
	gw := clinicFixture()
	gw.failOn = "therapists"

	_, err := NewBuilder(gw, utc).Board(context.Background(), models.Identity{UserID: "P1", Role: models.RolePatient})
	assert.Error(t, err)
}

func TestBoard_Upcoming(t *testing.T) {
	board, err := NewBuilder(clinicFixture(), utc).Board(context.Background(), models.Identity{UserID: "P1", Role: models.RolePatient})
	require.NoError(t, err)

	up := board.Upcoming(time.Date(2024, 5, 2, 0, 0, 0, 0, utc))
	require.Len(t, up, 1)
	assert.Equal(t, models.ID("3"), up[0].SessionID)
}

func TestBuilder_Stats(t *testing.T) {
	s, err := NewBuilder(clinicFixture(), utc).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 6, Therapists: 3, Patients: 2, Appointments: 4}, *s)
}

func TestBuilder_StatsAllOrNothing(t *testing.T) {
	for _, name := range []string{"users", "therapists", "patients", "sessions"} {
		gw := clinicFixture()
		gw.failOn = name

		s, err := NewBuilder(gw, utc).Stats(context.Background())

		assert.Nil(t, s, name)
		var fe *feedback.Error
		require.True(t, errors.As(err, &fe), name)
		assert.Equal(t, "Failed to load data.", fe.Message)
	}
}

func TestBuilder_Directory(t *testing.T) {
	gw := clinicFixture()
	gw.users = []models.UserRecord{
		{ID: "7", UserID: "u-a", Username: "alice", FirstName: "Alice"},
		{UserID: "u-b", Username: "bob"},
		{UserID: "u-c"},
	}
	b := NewBuilder(gw, utc)
	ctx := context.Background()

	rows, err := b.Directory(ctx, DirectoryUsers, "", MatchUsername)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "7", rows[0].ID)
	assert.Equal(t, "2", rows[1].ID)
	assert.Equal(t, models.ID("u-b"), rows[1].UserID)
	assert.Equal(t, "N/A", rows[2].Username)
	assert.Equal(t, "N/A", rows[1].LastName)

	rows, err = b.Directory(ctx, DirectoryUsers, "BO", MatchUsername)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bob", rows[0].Username)

	rows, err = b.Directory(ctx, DirectoryUsers, "n/a", MatchUsername)
	require.NoError(t, err)
	assert.Empty(t, rows, "placeholders never match a search")

	rows, err = b.Directory(ctx, DirectoryTherapists, "psych", MatchNameOrSpecialization)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = b.Directory(ctx, DirectoryPatients, "wong", MatchNameOrSpecialization)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Lee Wong", rows[0].FullName())
}

func TestBuilder_BookingOptions(t *testing.T) {
	opts, err := NewBuilder(clinicFixture(), utc).BookingOptions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Psychology", "Family"}, opts.Specializations)
	psych := opts.TherapistsFor("Psychology")
	require.Len(t, psych, 2)
	assert.Equal(t, "Jane Doe", psych[0].Name)
	assert.Empty(t, opts.TherapistsFor("Dance"))
}

func TestBuilder_Book(t *testing.T) {
	patient := models.Identity{UserID: "P1", Role: models.RolePatient, FirstName: "Pat"}
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		gw := clinicFixture()
		b := NewBuilder(gw, utc)
		_, err := b.Book(ctx, patient, BookingForm{Reason: "", Start: "2024-05-01T10:00", Specialization: "Psychology", TherapistID: "T1"})
		assert.EqualError(t, err, msgFillAll)
		_, err = b.Book(ctx, patient, BookingForm{Reason: "x", Start: "tomorrow", Specialization: "Psychology", TherapistID: "T1"})
		assert.EqualError(t, err, msgInvalidStart)
		_, err = b.Book(ctx, models.Identity{}, BookingForm{Reason: "x", Start: "2024-05-01T10:00", Specialization: "Psychology", TherapistID: "T1"})
		assert.EqualError(t, err, msgNoIdentity)
		assert.Zero(t, gw.calls["create"])
	})

	t.Run("creates provisional event", func(t *testing.T) {
		gw := clinicFixture()
		loc := time.FixedZone("clinic", 2*3600)
		b := NewBuilder(gw, loc)

		ev, err := b.Book(ctx, patient, BookingForm{Reason: " Anxiety ", Start: "2024-06-10T15:30", Specialization: "Psychology", TherapistID: "T1"})
		require.NoError(t, err)

		require.Len(t, gw.created, 1)
		assert.Equal(t, models.NewAppointment{Reason: "Anxiety", Time: "2024-06-10T13:30:00Z", PatientID: "P1", TherapistID: "T1"}, gw.created[0])
		assert.True(t, ev.Provisional)
		assert.Equal(t, models.ID("99"), ev.SessionID)
		assert.Equal(t, "Session for Pat", ev.Title)
		assert.Equal(t, SessionLength, ev.End.Sub(ev.Start))
	})

	t.Run("backend failure", func(t *testing.T) {
		gw := clinicFixture()
		gw.failOn = "create"
		_, err := NewBuilder(gw, utc).Book(ctx, patient, BookingForm{Reason: "x", Start: "2024-05-01T10:00", Specialization: "Psychology", TherapistID: "T1"})
		assert.EqualError(t, err, "An error occurred while creating the appointment.")
	})
}

func TestBuilder_UpdateStatus(t *testing.T) {
	gw := clinicFixture()
	b := NewBuilder(gw, utc)
	ctx := context.Background()

	require.NoError(t, b.UpdateStatus(ctx, "2", "completed"))
	assert.Equal(t, models.StatusCompleted, gw.updated["2"])

	assert.EqualError(t, b.UpdateStatus(ctx, "2", "archived"), "Failed to update status.")
	assert.EqualError(t, b.UpdateStatus(ctx, "", "Pending"), "Failed to update status.")

	gw.failOn = "update"
	assert.EqualError(t, b.UpdateStatus(ctx, "2", "Cancelled"), "Failed to update status.")
}

func TestComposeStart(t *testing.T) {
	tests := []struct {
		date, clock string
		want        time.Time
	}{
		{"2024-05-01", "10:00:00", time.Date(2024, 5, 1, 10, 0, 0, 0, utc)},
		{"2024-05-01", "10:00", time.Date(2024, 5, 1, 10, 0, 0, 0, utc)},
		{"2024-05-01T00:00:00Z", "08:15:00", time.Date(2024, 5, 1, 8, 15, 0, 0, utc)},
		{"2024-05-01", "08:15:00.000000", time.Date(2024, 5, 1, 8, 15, 0, 0, utc)},
		{"2024-05-01T08:15:00+02:00", "", time.Date(2024, 5, 1, 6, 15, 0, 0, utc)},
		{"2024-05-01", "", time.Date(2024, 5, 1, 0, 0, 0, 0, utc)},
	}
	for _, tt := range tests {
		got, err := ComposeStart(tt.date, tt.clock, utc)
		require.NoError(t, err, tt.date+" "+tt.clock)
		assert.True(t, tt.want.Equal(got), "%s %s: got %v", tt.date, tt.clock, got)
	}

	_, err := ComposeStart("05/01/2024", "10:00", utc)
	assert.Error(t, err)
}

func TestFilterSessions(t *testing.T) {
	rows := []SessionRow{
		{SessionID: "1", Date: "May 1, 2024", TherapistName: "Jane Doe", PatientName: "Pat Smith", Status: models.StatusPending},
		{SessionID: "2", Date: "May 2, 2024", TherapistName: UnknownTherapist, PatientName: "Lee Wong", Status: models.StatusCompleted},
	}
	assert.Len(t, FilterSessions(rows, ""), 2)
	assert.Len(t, FilterSessions(rows, "may"), 2)
	assert.Equal(t, models.ID("1"), FilterSessions(rows, "JANE")[0].SessionID)
	assert.Equal(t, models.ID("2"), FilterSessions(rows, "completed")[0].SessionID)
	assert.Empty(t, FilterSessions(rows, "cancelled"))
}
