// Package mockapi is an in-process stand-in for the clinic REST backend. It
// implements the endpoints the portal calls, with the same detail strings, so
// the portal can run locally and be tested end to end.
package mockapi

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/utils"
)

// Config tunes the stub backend.
type Config struct {
	JWTSecret       string
	TokenTTL        time.Duration
	OTPExpiry       time.Duration
	LoginRatePerMin int
	// Location is the clinic zone sessions are stored in.
	Location *time.Location
}

// Server serves the stub backend API.
type Server struct {
	DB      *gorm.DB
	Cfg     Config
	Tokens  *TokenIssuer
	Mailer  Mailer
	Logger  *logging.Logger
	Limiter *RateLimiter
	Now     func() time.Time
}

// NewServer wires a Server.
func NewServer(db *gorm.DB, cfg Config, mailer Mailer, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.OTPExpiry <= 0 {
		cfg.OTPExpiry = 10 * time.Minute
	}
	if mailer == nil {
		mailer = &LogMailer{logger: logger}
	}
	return &Server{
		DB:      db,
		Cfg:     cfg,
		Tokens:  NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Mailer:  mailer,
		Logger:  logger,
		Limiter: NewRateLimiter(cfg.LoginRatePerMin),
		Now:     time.Now,
	}
}

// Router builds the gin engine serving the API. mw runs before every route.
func (s *Server) Router(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(mw...)

	throttled := router.Group("")
	throttled.Use(s.Limiter.Middleware())
	{
		throttled.POST("/login", s.Login)
		throttled.POST("/verify-login-otp", s.VerifyLoginOTP)
		throttled.POST("/forgot-password", s.ForgotPassword)
		throttled.POST("/reset-password", s.ResetPassword)
	}
	router.POST("/signup", s.Signup)

	private := router.Group("")
	private.Use(s.AuthMiddleware())
	{
		private.PATCH("/users/:id", s.UpdateProfile)
		private.GET("/users", s.ListUsers)
		private.GET("/therapists", s.ListTherapists)
		private.POST("/therapists", s.RequireRole("admin"), s.CreateTherapist)
		private.GET("/patients", s.ListPatients)
		private.GET("/session", s.ListSessions)
		private.POST("/sessions", s.CreateSession)
		private.PATCH("/session/:id", s.UpdateSessionStatus)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
	return router
}

const (
	ctxUserID = "userID"
	ctxRole   = "userRole"
)

// AuthMiddleware checks the bearer token and loads the caller's id and role.
func (s *Server) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Not authenticated")
			return
		}
		claims, err := s.Tokens.Validate(parts[1])
		if err != nil {
			utils.Unauthorized(c, "Could not validate credentials")
			return
		}
		var user User
		if err := s.DB.WithContext(c.Request.Context()).First(&user, "id = ?", claims.UserID).Error; err != nil {
			utils.Unauthorized(c, "Could not validate credentials")
			return
		}
		c.Set(ctxUserID, user.ID)
		c.Set(ctxRole, user.Role)
		c.Next()
	}
}

// RequireRole admits only callers with one of roles.
func (s *Server) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		utils.Forbidden(c, "You do not have permission to access this resource.")
	}
}
