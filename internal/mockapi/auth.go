package mockapi

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"iris-therapy-portal/internal/models"
	"iris-therapy-portal/internal/utils"
)

// Detail strings the portal matches on.
const (
	detailInvalidCredentials = "Invalid credentials"
	detailInvalidEmail       = "Invalid email format"
	detailUserNotFound       = "User not found"
	detailEmailRegistered    = "Email already registered"
	detailInvalidOTP         = "Invalid OTP code"
	detailOTPExpired         = "OTP has expired"
	detailOTPUsed            = "OTP has already been used"
	detailUsernameTaken      = "Username already taken"
)

// CredentialsRequest is the body of /login and /signup.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        models.Identity `json:"user"`
}

// Login checks the password and emails a sign-in code. No token is issued
// until the code is verified.
func (s *Server) Login(c *gin.Context) {
	var req CredentialsRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()

	var user User
	if err := s.DB.WithContext(ctx).Where("email = ?", strings.TrimSpace(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, detailInvalidCredentials)
			return
		}
		utils.InternalServerError(c, "Database error")
		return
	}
	if !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, detailInvalidCredentials)
		return
	}

	if err := s.issueOTP(ctx, &user, PurposeLogin); err != nil {
		s.Logger.Error("issue login otp failed", "error", err)
		utils.InternalServerError(c, "Failed to send OTP")
		return
	}
	utils.Success(c, gin.H{"message": "OTP sent to your email"})
}

// VerifyLoginOTP exchanges a sign-in code for a token.
func (s *Server) VerifyLoginOTP(c *gin.Context) {
	user, detail, err := s.consumeOTP(c.Request.Context(), c.Query("otp_code"), PurposeLogin)
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	if detail != "" {
		utils.BadRequest(c, detail)
		return
	}
	s.respondWithToken(c, user, false)
}

// Signup registers a patient account and signs it in.
func (s *Server) Signup(c *gin.Context) {
	var req CredentialsRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if !utils.IsClinicEmail(email) {
		utils.BadRequest(c, detailInvalidEmail)
		return
	}
	if !utils.IsStrongPassword(req.Password) {
		utils.Unprocessable(c, "Password is too weak")
		return
	}
	ctx := c.Request.Context()

	var count int64
	if err := s.DB.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	if count > 0 {
		utils.BadRequest(c, detailEmailRegistered)
		return
	}

	user := User{Email: email, Role: models.RolePatient.String()}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password")
		return
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to create user")
		return
	}
	s.respondWithToken(c, &user, true)
}

// ForgotPassword emails a reset code.
func (s *Server) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Unprocessable(c, "Invalid request payload")
		return
	}
	email := strings.TrimSpace(req.Email)
	if !utils.IsClinicEmail(email) {
		utils.BadRequest(c, detailInvalidEmail)
		return
	}
	ctx := c.Request.Context()

	var user User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, detailUserNotFound)
			return
		}
		utils.InternalServerError(c, "Database error")
		return
	}
	if err := s.issueOTP(ctx, &user, PurposeReset); err != nil {
		s.Logger.Error("issue reset otp failed", "error", err)
		utils.InternalServerError(c, "Failed to send OTP")
		return
	}
	utils.Success(c, gin.H{"message": "Password reset code sent"})
}

// ResetPassword sets a new password authorised by a reset code.
func (s *Server) ResetPassword(c *gin.Context) {
	newPassword := c.Query("new_password")
	if newPassword == "" {
		utils.Unprocessable(c, "new_password is required")
		return
	}
	ctx := c.Request.Context()
	user, detail, err := s.consumeOTP(ctx, c.Query("otp_code"), PurposeReset)
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}
	if detail != "" {
		utils.BadRequest(c, detail)
		return
	}
	if err := user.SetPassword(newPassword); err != nil {
		utils.InternalServerError(c, "Failed to hash password")
		return
	}
	if err := s.DB.WithContext(ctx).Model(user).Update("password", user.Password).Error; err != nil {
		utils.InternalServerError(c, "Failed to update password")
		return
	}
	utils.Success(c, gin.H{"message": "Password reset successful"})
}

// UpdateProfile completes onboarding. Callers may only update themselves,
// except admins.
func (s *Server) UpdateProfile(c *gin.Context) {
	id := c.Param("id")
	if c.GetString(ctxUserID) != id && c.GetString(ctxRole) != models.RoleAdmin.String() {
		utils.Forbidden(c, "You can only update your own profile")
		return
	}
	ctx := c.Request.Context()

	var user User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, detailUserNotFound)
			return
		}
		utils.InternalServerError(c, "Database error")
		return
	}

	username := strings.TrimSpace(c.Query("username"))
	if username != "" {
		var taken int64
		if err := s.DB.WithContext(ctx).Model(&User{}).
			Where("username = ? AND id <> ?", username, user.ID).Count(&taken).Error; err != nil {
			utils.InternalServerError(c, "Database error")
			return
		}
		if taken > 0 {
			utils.BadRequest(c, detailUsernameTaken)
			return
		}
		user.Username = username
	}
	for param, field := range map[string]*string{
		"first_name":    &user.FirstName,
		"last_name":     &user.LastName,
		"phone_number":  &user.PhoneNumber,
		"date_of_birth": &user.DateOfBirth,
	} {
		if v := strings.TrimSpace(c.Query(param)); v != "" {
			*field = v
		}
	}
	user.IsVerified = true

	if err := s.DB.WithContext(ctx).Save(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to update user")
		return
	}
	utils.Success(c, gin.H{"message": "Profile updated", "user": user.Identity()})
}

func (s *Server) respondWithToken(c *gin.Context, user *User, created bool) {
	token, err := s.Tokens.Issue(user)
	if err != nil {
		utils.InternalServerError(c, "Failed to issue token")
		return
	}
	resp := AuthResponse{AccessToken: token, TokenType: "bearer", User: user.Identity()}
	if created {
		utils.Created(c, resp)
		return
	}
	utils.Success(c, resp)
}

// issueOTP replaces any outstanding code for user and purpose and emails a
// fresh one. Codes are unique among live codes so they can be looked up alone.
func (s *Server) issueOTP(ctx context.Context, user *User, purpose OTPPurpose) error {
	now := s.Now()
	db := s.DB.WithContext(ctx)
	if err := db.Where("user_id = ? AND purpose = ? AND used_at IS NULL", user.ID, purpose).
		Delete(&OTPCode{}).Error; err != nil {
		return fmt.Errorf("clear old codes: %w", err)
	}

	var code string
	for attempt := 0; ; attempt++ {
		candidate, err := randomCode()
		if err != nil {
			return err
		}
		var live int64
		if err := db.Model(&OTPCode{}).
			Where("code = ? AND purpose = ? AND used_at IS NULL AND expires_at > ?", candidate, purpose, now).
			Count(&live).Error; err != nil {
			return fmt.Errorf("check code: %w", err)
		}
		if live == 0 {
			code = candidate
			break
		}
		if attempt >= 10 {
			return errors.New("could not allocate a unique code")
		}
	}

	otp := OTPCode{UserID: user.ID, Code: code, Purpose: purpose, ExpiresAt: now.Add(s.Cfg.OTPExpiry)}
	if err := db.Create(&otp).Error; err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	return s.Mailer.Send(ctx, Mail{
		To:      user.Email,
		Subject: subjectFor(purpose),
		Code:    code,
		Purpose: purpose,
		SentAt:  now,
	})
}

// consumeOTP marks code used and returns its user. A non-empty detail means
// the code was rejected.
func (s *Server) consumeOTP(ctx context.Context, code string, purpose OTPPurpose) (*User, string, error) {
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return nil, detailInvalidOTP, nil
	}
	db := s.DB.WithContext(ctx)

	var otp OTPCode
	err := db.Where("code = ? AND purpose = ?", code, purpose).Order("id desc").First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, detailInvalidOTP, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("find code: %w", err)
	}
	now := s.Now()
	if otp.UsedAt != nil {
		return nil, detailOTPUsed, nil
	}
	if now.After(otp.ExpiresAt) {
		return nil, detailOTPExpired, nil
	}

	var user User
	if err := db.First(&user, "id = ?", otp.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, detailInvalidOTP, nil
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}
	if err := db.Model(&otp).Update("used_at", now).Error; err != nil {
		return nil, "", fmt.Errorf("mark code used: %w", err)
	}
	return &user, "", nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// placeholderPassword is set on accounts created by an admin. The owner
// replaces it through the password reset flow.
func placeholderPassword() string {
	return "Tmp@" + uuid.NewString()
}
