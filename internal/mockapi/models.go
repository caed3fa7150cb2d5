package mockapi

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"iris-therapy-portal/internal/models"
)

// User is an account row.
type User struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	Email          string `gorm:"uniqueIndex;size:255;not null"`
	Password       string `gorm:"size:255;not null"`
	Username       string `gorm:"size:100;index"`
	FirstName      string `gorm:"size:100"`
	LastName       string `gorm:"size:100"`
	Role           string `gorm:"size:20;not null;default:'patient'"`
	PhoneNumber    string `gorm:"size:32;index"`
	DateOfBirth    string `gorm:"size:32"`
	Specialization string `gorm:"size:100"`
	MedicalHistory string `gorm:"type:text"`
	IsVerified     bool   `gorm:"default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BeforeCreate assigns a UUID rather than a numeric ID.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// SetPassword hashes a password and sets it on the user.
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword compares a password with the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// Identity is the user as the portal holds it after sign-in.
func (u *User) Identity() models.Identity {
	role, _ := models.ParseRole(u.Role)
	return models.Identity{
		UserID:     models.ID(u.ID),
		Username:   u.Username,
		Email:      u.Email,
		Role:       role,
		IsVerified: u.IsVerified,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}

// Record is the user as the directory endpoints list it.
func (u *User) Record() models.UserRecord {
	return models.UserRecord{
		UserID:         models.ID(u.ID),
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		Specialization: u.Specialization,
		PhoneNumber:    u.PhoneNumber,
		DateOfBirth:    u.DateOfBirth,
		MedicalHistory: u.MedicalHistory,
		IsVerified:     u.IsVerified,
	}
}

// Session is a booked therapy session. Date and Time are wall-clock values in
// the clinic's zone, stored separately the way the portal reads them.
type Session struct {
	ID          uint   `gorm:"primaryKey"`
	PatientID   string `gorm:"size:36;index;not null"`
	TherapistID string `gorm:"size:36;index;not null"`
	Date        string `gorm:"size:10;not null"`
	Time        string `gorm:"size:8;not null"`
	Reason      string `gorm:"size:255"`
	Status      string `gorm:"size:20;not null;default:'Pending'"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// sessionResponse is the wire form of a Session. Ids go out as numbers.
type sessionResponse struct {
	SessionID   uint   `json:"sessionID"`
	PatientID   string `json:"patientID"`
	TherapistID string `json:"therapistID"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Reason      string `json:"reason"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

func (s *Session) response() sessionResponse {
	return sessionResponse{
		SessionID:   s.ID,
		PatientID:   s.PatientID,
		TherapistID: s.TherapistID,
		Date:        s.Date,
		Time:        s.Time,
		Reason:      s.Reason,
		Status:      s.Status,
		Description: s.Description,
	}
}

// OTPPurpose separates sign-in codes from password-reset codes.
type OTPPurpose string

const (
	PurposeLogin OTPPurpose = "login"
	PurposeReset OTPPurpose = "reset"
)

// OTPCode is a one-time code emailed to a user.
type OTPCode struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    string     `gorm:"size:36;index;not null"`
	Code      string     `gorm:"size:6;index;not null"`
	Purpose   OTPPurpose `gorm:"size:10;not null"`
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
