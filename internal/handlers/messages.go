package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"iris-therapy-portal/internal/feedback"
	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/utils"
)

// MessageHandler accepts support messages from signed-in users.
type MessageHandler struct {
	Logger *logging.Logger
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(logger *logging.Logger) *MessageHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &MessageHandler{Logger: logger}
}

// SupportMessageRequest is the support form submission.
type SupportMessageRequest struct {
	Name    string `form:"name" validate:"required"`
	Email   string `form:"email" validate:"required,clinicemail"`
	Message string `form:"message" validate:"required"`
}

// SendSupportMessage records a support message. There is no support backend,
// so the message goes to the structured log for the clinic staff.
func (h *MessageHandler) SendSupportMessage(c *gin.Context) {
	back := strings.TrimSuffix(c.Request.URL.Path, "/")
	var req SupportMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		redirectWith(c, back, feedback.Notice{Level: feedback.LevelError, Message: "Please fill all fields!"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if err := utils.Validate(&req); err != nil {
		redirectWith(c, back, feedback.Notice{Level: feedback.LevelError, Message: "Please fill all fields!"})
		return
	}

	identity := currentIdentity(c)
	h.Logger.Info("support message received",
		"user_id", identity.UserID,
		"role", identity.Role.String(),
		"name", req.Name,
		"email", req.Email,
		"message", req.Message,
	)
	redirectWith(c, back, feedback.Success("Support message submitted!"))
}
