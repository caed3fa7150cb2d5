package mockapi

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"iris-therapy-portal/internal/models"
	"iris-therapy-portal/internal/utils"
)

const (
	sessionDateLayout = "2006-01-02"
	sessionTimeLayout = "15:04:05"
)

func (s *Server) listByRole(c *gin.Context, role string) {
	var users []User
	q := s.DB.WithContext(c.Request.Context()).Order("created_at asc")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	out := make([]models.UserRecord, 0, len(users))
	for i := range users {
		out = append(out, users[i].Record())
	}
	utils.Success(c, out)
}

// ListUsers returns every account.
func (s *Server) ListUsers(c *gin.Context) { s.listByRole(c, "") }

// ListTherapists returns every therapist.
func (s *Server) ListTherapists(c *gin.Context) { s.listByRole(c, models.RoleTherapist.String()) }

// ListPatients returns every patient.
func (s *Server) ListPatients(c *gin.Context) { s.listByRole(c, models.RolePatient.String()) }

// CreateTherapist adds a therapist account. The therapist sets a password
// through the reset flow.
func (s *Server) CreateTherapist(c *gin.Context) {
	var req models.NewTherapist
	if !utils.BindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()

	var clash int64
	if err := s.DB.WithContext(ctx).Model(&User{}).
		Where("email = ? OR (phone_number <> '' AND phone_number = ?)", req.Email, req.PhoneNumber).
		Count(&clash).Error; err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	if clash > 0 {
		utils.BadRequest(c, "Email or phone number already in use")
		return
	}

	user := User{
		Email:          strings.TrimSpace(req.Email),
		Username:       strings.SplitN(req.Email, "@", 2)[0],
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PhoneNumber:    req.PhoneNumber,
		DateOfBirth:    req.DateOfBirth,
		Specialization: req.Specialization,
		Role:           models.RoleTherapist.String(),
		IsVerified:     true,
	}
	if err := user.SetPassword(placeholderPassword()); err != nil {
		utils.InternalServerError(c, "Failed to hash password")
		return
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to create therapist")
		return
	}
	utils.Created(c, user.Record())
}

// ListSessions returns every session. Scoping to the caller is the portal's
// job.
func (s *Server) ListSessions(c *gin.Context) {
	var sessions []Session
	if err := s.DB.WithContext(c.Request.Context()).Order("id asc").Find(&sessions).Error; err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessions[i].response())
	}
	utils.Success(c, out)
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Reason      string    `json:"reason" validate:"required"`
	Time        string    `json:"time" validate:"required"`
	PatientID   models.ID `json:"patientID" validate:"required"`
	TherapistID models.ID `json:"therapistID" validate:"required"`
}

// CreateSession books a session. Patients may only book for themselves.
func (s *Server) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if c.GetString(ctxRole) == models.RolePatient.String() && c.GetString(ctxUserID) != req.PatientID.String() {
		utils.Forbidden(c, "Patients can only book appointments for themselves.")
		return
	}
	start, err := time.Parse(time.RFC3339, req.Time)
	if err != nil {
		utils.Unprocessable(c, "Invalid time format")
		return
	}
	ctx := c.Request.Context()

	var therapist User
	err = s.DB.WithContext(ctx).Where("id = ? AND role = ?", req.TherapistID.String(), models.RoleTherapist.String()).First(&therapist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "Therapist not found")
		return
	} else if err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}

	local := start.In(s.Cfg.Location)
	session := Session{
		PatientID:   req.PatientID.String(),
		TherapistID: therapist.ID,
		Date:        local.Format(sessionDateLayout),
		Time:        local.Format(sessionTimeLayout),
		Reason:      strings.TrimSpace(req.Reason),
		Status:      string(models.StatusPending),
	}
	if err := s.DB.WithContext(ctx).Create(&session).Error; err != nil {
		utils.InternalServerError(c, "Failed to create session")
		return
	}
	utils.Created(c, session.response())
}

// UpdateSessionStatus changes a session's status. Only the session's
// therapist or an admin may do so.
func (s *Server) UpdateSessionStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.NotFound(c, "Session not found")
		return
	}
	var req models.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Unprocessable(c, "Invalid request payload")
		return
	}
	status, err := models.ParseAppointmentStatus(string(req.Status))
	if err != nil {
		utils.Unprocessable(c, "Invalid status")
		return
	}
	ctx := c.Request.Context()

	var session Session
	if err := s.DB.WithContext(ctx).First(&session, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Session not found")
			return
		}
		utils.InternalServerError(c, "Database error")
		return
	}
	role := c.GetString(ctxRole)
	if role != models.RoleAdmin.String() && c.GetString(ctxUserID) != session.TherapistID {
		utils.Forbidden(c, "You do not have permission to update this session.")
		return
	}
	if err := s.DB.WithContext(ctx).Model(&session).Update("status", string(status)).Error; err != nil {
		utils.InternalServerError(c, "Failed to update session")
		return
	}
	session.Status = string(status)
	utils.Success(c, session.response())
}
