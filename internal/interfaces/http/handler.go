package http

import (
	"context"
	"net/http"
	"project_sheetbot/internal/entities"
	"project_sheetbot/internal/interfaces"
	"project_sheetbot/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const PlatformWeb = "web"

// WhatsAppStatus is the read-only view of the WhatsApp transport used by the ops routes.
type WhatsAppStatus interface {
	IsConnected() bool
	IsLoggedIn() bool
	GetPhoneNumber() string
	GetQR() string
}

type Dispatcher interface {
	HandleMessage(ctx context.Context, msg entities.IncomingMessage, replier interfaces.Messenger) usecases.DispatchResult
}

type Authenticator interface {
	Login(username, password string) (string, error)
}

type Handler struct {
	dispatcher Dispatcher
	whatsapp   WhatsAppStatus
}

func NewHandler(dispatcher Dispatcher, whatsapp WhatsAppStatus) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		whatsapp:   whatsapp,
	}
}

func SetupRoutes(r *gin.Engine, dispatcher Dispatcher, auth Authenticator, whatsapp WhatsAppStatus, middleware *Middleware) {
	h := NewHandler(dispatcher, whatsapp)

	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20)) // 1MB max request size

	r.GET("/healthz", h.Health)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", func(c *gin.Context) {
			var loginReq struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&loginReq); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			token, err := auth.Login(loginReq.Username, loginReq.Password)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token})
		})
	}

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser(5, 10))
	{
		api.GET("/whatsapp/status", h.GetWhatsAppStatus)
		api.GET("/whatsapp/qr", h.GetWhatsAppQR)
		api.POST("/messages", h.HandleWebMessage)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"whatsapp": h.whatsapp != nil && h.whatsapp.IsConnected(),
	})
}

func (h *Handler) GetWhatsAppStatus(c *gin.Context) {
	if h.whatsapp == nil {
		c.JSON(http.StatusOK, gin.H{"connected": false, "error": "WhatsApp not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connected": h.whatsapp.IsConnected(),
		"logged_in": h.whatsapp.IsLoggedIn(),
		"phone":     h.whatsapp.GetPhoneNumber(),
		"hasQR":     h.whatsapp.GetQR() != "",
	})
}

// GetWhatsAppQR returns the pending pairing QR code as PNG.
func (h *Handler) GetWhatsAppQR(c *gin.Context) {
	if h.whatsapp == nil {
		c.String(http.StatusServiceUnavailable, "WhatsApp not configured")
		return
	}

	qrCodeString := h.whatsapp.GetQR()
	if qrCodeString == "" {
		if h.whatsapp.IsLoggedIn() {
			c.String(http.StatusOK, "Already logged in")
			return
		}
		c.String(http.StatusAccepted, "QR code not yet available. Please wait...")
		return
	}

	png, err := qrcode.Encode(qrCodeString, qrcode.Medium, 256)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// HandleWebMessage runs one message through the dispatcher synchronously
// and returns the reply instead of sending it.
func (h *Handler) HandleWebMessage(c *gin.Context) {
	var payload struct {
		From    string `json:"from" binding:"required"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !ValidateLength(payload.Content, 0, MaxPayloadLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content too long"})
		return
	}

	from := SanitizeString(payload.From)
	msg := entities.IncomingMessage{
		Platform:     PlatformWeb,
		ChatID:       from,
		SenderID:     from,
		Conversation: SanitizeString(payload.Content),
	}

	result := h.dispatcher.HandleMessage(c.Request.Context(), msg, nil)
	switch result.State {
	case usecases.StateUnauthorized:
		c.JSON(http.StatusForbidden, gin.H{"error": "sender not allowed"})
	case usecases.StateEmpty:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "empty message"})
	case usecases.StateReplied:
		c.JSON(http.StatusOK, gin.H{
			"command": usecases.CommandName(result.Command),
			"reply":   result.Reply,
		})
	default:
		c.JSON(http.StatusOK, gin.H{"status": string(result.State)})
	}
}
