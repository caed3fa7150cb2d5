package mockapi

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"iris-therapy-portal/internal/models"
)

// SeedAccount is a ready-made login for local use and tests.
type SeedAccount struct {
	Email    string
	Password string
	Role     models.Role
}

// Seed accounts. All share one password that satisfies the strength rule.
var (
	SeedAdmin     = SeedAccount{Email: "admin@iris.local", Password: "Iris@2024", Role: models.RoleAdmin}
	SeedTherapist = SeedAccount{Email: "jane.doe@iris.local", Password: "Iris@2024", Role: models.RoleTherapist}
	SeedPatient   = SeedAccount{Email: "sam.lee@iris.local", Password: "Iris@2024", Role: models.RolePatient}
)

// Seed fills an empty database with an admin, two therapists, two patients
// and a few sessions around now. It does nothing when users already exist.
func Seed(ctx context.Context, db *gorm.DB, loc *time.Location, now time.Time) error {
	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed: count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	users := []*User{
		{Email: SeedAdmin.Email, Username: "admin", FirstName: "Iris", LastName: "Admin", Role: "admin", PhoneNumber: "+15550000001", DateOfBirth: "1980-01-01", IsVerified: true},
		{Email: SeedTherapist.Email, Username: "janedoe", FirstName: "Jane", LastName: "Doe", Role: "therapist", PhoneNumber: "+15550000002", DateOfBirth: "1985-04-12", Specialization: "Anxiety", IsVerified: true},
		{Email: "omar.haddad@iris.local", Username: "omarh", FirstName: "Omar", LastName: "Haddad", Role: "therapist", PhoneNumber: "+15550000003", DateOfBirth: "1979-09-30", Specialization: "Couples Therapy", IsVerified: true},
		{Email: SeedPatient.Email, Username: "samlee", FirstName: "Sam", LastName: "Lee", Role: "patient", PhoneNumber: "+15550000004", DateOfBirth: "1995-06-21", IsVerified: true},
		{Email: "ana.silva@iris.local", Username: "anas", FirstName: "Ana", LastName: "Silva", Role: "patient", PhoneNumber: "+15550000005", DateOfBirth: "1990-11-02", MedicalHistory: "Seasonal affective disorder", IsVerified: true},
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range users {
			if err := u.SetPassword(SeedAdmin.Password); err != nil {
				return fmt.Errorf("seed: hash password: %w", err)
			}
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("seed: create %s: %w", u.Email, err)
			}
		}

		jane, omar, sam, ana := users[1], users[2], users[3], users[4]
		day := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc)
		sessions := []Session{
			{PatientID: sam.ID, TherapistID: jane.ID, Reason: "Initial consultation", Status: string(models.StatusCompleted), Description: "Intake and goals"},
			{PatientID: sam.ID, TherapistID: jane.ID, Reason: "Follow-up", Status: string(models.StatusPending)},
			{PatientID: ana.ID, TherapistID: omar.ID, Reason: "Couples session", Status: string(models.StatusPending)},
			{PatientID: ana.ID, TherapistID: jane.ID, Reason: "Stress management", Status: string(models.StatusCancelled)},
		}
		offsets := []time.Duration{-7*24*time.Hour + 10*time.Hour, 2*24*time.Hour + 14*time.Hour, 3*24*time.Hour + 9*time.Hour, -2*24*time.Hour + 16*time.Hour}
		for i := range sessions {
			at := day.Add(offsets[i])
			sessions[i].Date = at.Format(sessionDateLayout)
			sessions[i].Time = at.Format(sessionTimeLayout)
			if err := tx.Create(&sessions[i]).Error; err != nil {
				return fmt.Errorf("seed: create session: %w", err)
			}
		}
		return nil
	})
}
