package routes

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"iris-therapy-portal/internal/apiclient"
	"iris-therapy-portal/internal/handlers"
	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/middleware"
	"iris-therapy-portal/internal/models"
	"iris-therapy-portal/internal/observability/metrics"
	"iris-therapy-portal/internal/viewmodel"
)

// Dependencies are the collaborators the portal routes are built from.
type Dependencies struct {
	API         *apiclient.Client
	Sessions    middleware.SessionBinder
	Location    *time.Location
	Logger      *logging.Logger
	Gatherer    prometheus.Gatherer
	AuthMetrics *metrics.AuthMetrics
}

// SetupRoutes configures the portal routes.
func SetupRoutes(router *gin.Engine, deps Dependencies) error {
	tmpl, err := handlers.LoadTemplates()
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)

	pageHandler, err := handlers.NewPageHandler()
	if err != nil {
		return fmt.Errorf("setup routes: %w", err)
	}
	authHandler := handlers.NewAuthHandler(deps.API, deps.Logger, deps.AuthMetrics)
	dashboardHandler := handlers.NewDashboardHandler(deps.API, deps.Location, deps.Logger)
	appointmentHandler := handlers.NewAppointmentHandler(deps.API, deps.Location, deps.Logger)
	userHandler := handlers.NewUserHandler(deps.API, deps.Location, deps.Logger)
	messageHandler := handlers.NewMessageHandler(deps.Logger)

	router.GET("/health", handlers.Health)
	router.GET("/metrics", metrics.Handler(deps.Gatherer))
	router.StaticFS("/static", handlers.StaticFiles())

	// Everything below reads the browser session.
	portal := router.Group("")
	portal.Use(middleware.Session(deps.Sessions))

	portal.GET("/", authHandler.Root)

	// Public routes (no credential required)
	{
		portal.GET("/signin", authHandler.ShowSignIn)
		portal.POST("/signin", authHandler.SignIn)
		portal.GET("/signin/otp", authHandler.ShowOTP)
		portal.POST("/signin/otp", authHandler.VerifyOTP)
		portal.POST("/signin/otp/cancel", authHandler.CancelOTP)
		portal.GET("/signup", authHandler.ShowSignup)
		portal.POST("/signup", authHandler.Signup)
		portal.GET("/forgot-password", authHandler.ShowForgot)
		portal.POST("/forgot-password", authHandler.Forgot)
		portal.GET("/reset-password", authHandler.ShowReset)
		portal.POST("/reset-password", authHandler.Reset)
		portal.GET("/onboarding", authHandler.ShowOnboarding)
		portal.POST("/onboarding", authHandler.Onboarding)
		portal.POST("/logout", authHandler.Logout)
	}

	admin := portal.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("", dashboardHandler.Admin)
		admin.GET("/manage-users", userHandler.Directory(handlers.DirectoryPage{
			Title: "Manage Users", Kind: viewmodel.DirectoryUsers, Match: viewmodel.MatchUsername,
		}))
		admin.GET("/therapists", userHandler.Directory(handlers.DirectoryPage{
			Title: "Therapists", Kind: viewmodel.DirectoryTherapists, Match: viewmodel.MatchUsername, AddTherapist: true,
		}))
		admin.POST("/therapists", userHandler.CreateTherapist)
		admin.GET("/patients", userHandler.Directory(handlers.DirectoryPage{
			Title: "Patients", Kind: viewmodel.DirectoryPatients, Match: viewmodel.MatchUsername,
		}))
		admin.GET("/appointments", appointmentHandler.Calendar)
		admin.GET("/appointments/events", appointmentHandler.Events)
	}

	patient := portal.Group("/patient")
	patient.Use(middleware.RequireRole(models.RolePatient))
	{
		patient.GET("", dashboardHandler.Patient)
		patient.GET("/appointments", appointmentHandler.Calendar)
		patient.POST("/appointments", appointmentHandler.Book)
		patient.GET("/appointments/events", appointmentHandler.Events)
		patient.GET("/appointments/options", appointmentHandler.BookingOptions)
		patient.GET("/therapists", userHandler.Directory(handlers.DirectoryPage{
			Title: "Our Therapists", Kind: viewmodel.DirectoryTherapists, Match: viewmodel.MatchNameOrSpecialization,
		}))
		patient.GET("/session-history", appointmentHandler.History)
		patient.GET("/resources", pageHandler.Resources)
		patient.GET("/support", pageHandler.Support)
		patient.POST("/support", messageHandler.SendSupportMessage)
	}

	therapist := portal.Group("/therapist")
	therapist.Use(middleware.RequireRole(models.RoleTherapist))
	{
		therapist.GET("", dashboardHandler.Therapist)
		therapist.GET("/sessions", appointmentHandler.Calendar)
		therapist.GET("/sessions/events", appointmentHandler.Events)
		therapist.POST("/sessions/:id/status", appointmentHandler.UpdateStatus)
		therapist.GET("/patients", userHandler.Directory(handlers.DirectoryPage{
			Title: "Patients", Kind: viewmodel.DirectoryPatients, Match: viewmodel.MatchUsername,
		}))
		therapist.GET("/session-history", appointmentHandler.History)
		therapist.GET("/support", pageHandler.Support)
		therapist.POST("/support", messageHandler.SendSupportMessage)
	}

	return nil
}
