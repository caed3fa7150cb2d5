package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"iris-therapy-portal/internal/apiclient"
	"iris-therapy-portal/internal/feedback"
	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/models"
	"iris-therapy-portal/internal/utils"
	"iris-therapy-portal/internal/viewmodel"
)

// UserHandler serves the user directories and the add-therapist form.
type UserHandler struct {
	backend
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(api *apiclient.Client, loc *time.Location, logger *logging.Logger) *UserHandler {
	return &UserHandler{backend: newBackend(api, loc, logger)}
}

// DirectoryPage describes one directory table.
type DirectoryPage struct {
	Title        string
	Kind         viewmodel.DirectoryKind
	Match        viewmodel.MatchFunc
	AddTherapist bool
}

// Directory returns a handler listing one user collection, searched with ?q=.
func (h *UserHandler) Directory(page DirectoryPage) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		data := gin.H{
			"Title":        page.Title,
			"Query":        query,
			"AddTherapist": page.AddTherapist,
		}
		rows, err := h.builder(c).Directory(c.Request.Context(), page.Kind, query, page.Match)
		if err != nil {
			msg, done := h.loadFailed(c, err, msgFetchUsers)
			if done {
				return
			}
			data["Error"] = msg
		}
		data["Rows"] = rows
		render(c, http.StatusOK, "directory", data)
	}
}

var therapistMessages = feedback.Table{
	Rules: []feedback.Rule{
		{Detail: "Email or phone number already in use", Kind: feedback.KindConflict, Message: "Email already exists"},
	},
	Fallback: "Error adding therapist. Try again later!",
}

var therapistFieldLabels = map[string]string{
	"Email":          "Email",
	"FirstName":      "First name",
	"LastName":       "Last name",
	"PhoneNumber":    "phone_number",
	"DateOfBirth":    "Date of birth",
	"Specialization": "Specialization",
}

// CreateTherapist adds a therapist from the admin form.
func (h *UserHandler) CreateTherapist(c *gin.Context) {
	var req models.NewTherapist
	if err := c.ShouldBind(&req); err != nil {
		redirectWith(c, "/admin/therapists", feedback.Notice{Level: feedback.LevelError, Message: "Please fill all fields!"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := utils.Validate(&req); err != nil {
		redirectWith(c, "/admin/therapists", feedback.Failure(therapistFieldError(err), "Please fill all fields!"))
		return
	}

	created, err := credentialed(c, h.API).CreateTherapist(c.Request.Context(), req)
	if err != nil {
		if expired(c, err, h.Logger) {
			return
		}
		h.Logger.Error("add therapist failed", "error", err)
		redirectWith(c, "/admin/therapists", feedback.Failure(therapistMessages.Resolve(err), therapistMessages.Fallback))
		return
	}
	h.Logger.Info("therapist added", "user_id", created.UserID)
	redirectWith(c, "/admin/therapists", feedback.Success("Therapist added successfully!"))
}

// therapistFieldError turns the first failed field into a form message.
func therapistFieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return feedback.Validation(utils.FormatValidationError(err))
	}
	fe := verrs[0]
	label := therapistFieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	if fe.Tag() == "clinicemail" {
		return feedback.Validation("Invalid email format")
	}
	return feedback.Validation(label + " is required")
}
