package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of portal roles. The zero value is RoleUnknown and
// never grants access to a dashboard.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleTherapist
	RolePatient
)

// Roles lists every assignable role.
var Roles = []Role{RoleAdmin, RoleTherapist, RolePatient}

// ParseRole converts the backend's role string into a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "therapist":
		return RoleTherapist, nil
	case "patient":
		return RolePatient, nil
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTherapist:
		return "therapist"
	case RolePatient:
		return "patient"
	case RoleUnknown:
		return ""
	}
	return ""
}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTherapist || r == RolePatient
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes leniently: an unrecognised role becomes RoleUnknown so
// that one odd record never fails a whole payload.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		*r = RoleUnknown
		return nil
	}
	*r = parsed
	return nil
}

// Identity is the authenticated user held client-side for the length of a
// browser session.
type Identity struct {
	UserID     ID     `json:"userID"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	IsVerified bool   `json:"is_verified"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// FullName joins first and last name.
func (i Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// UserRecord is a user as returned by /users, /therapists and /patients.
type UserRecord struct {
	ID             ID     `json:"id,omitempty"`
	UserID         ID     `json:"userID"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Role           string `json:"role"`
	Specialization string `json:"specialization,omitempty"`
	PhoneNumber    string `json:"phone_number"`
	DateOfBirth    string `json:"date_of_birth"`
	MedicalHistory string `json:"medicalHistory,omitempty"`
	IsVerified     bool   `json:"is_verified"`
}

// FullName joins first and last name.
func (u UserRecord) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NewTherapist is the body of POST /therapists.
type NewTherapist struct {
	Email          string `json:"email" form:"email" validate:"required,clinicemail"`
	FirstName      string `json:"first_name" form:"first_name" validate:"required"`
	LastName       string `json:"last_name" form:"last_name" validate:"required"`
	PhoneNumber    string `json:"phone_number" form:"phone_number" validate:"required"`
	DateOfBirth    string `json:"date_of_birth" form:"date_of_birth" validate:"required"`
	Specialization string `json:"specialization" form:"specialization" validate:"required"`
}

// Profile carries the onboarding fields sent to PATCH /users/{id}.
type Profile struct {
	Username    string `form:"username" validate:"required"`
	FirstName   string `form:"first_name" validate:"required"`
	LastName    string `form:"last_name" validate:"required"`
	DateOfBirth string `form:"date_of_birth" validate:"required"`
	PhoneNumber string `form:"phone_number" validate:"required,intlphone"`
	AgreeTerms  bool   `form:"agree_terms"`
}
