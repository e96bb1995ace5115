package transport

import (
	"errors"
	"net/http"

	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/cuidador-digital/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	responseService service.ResponseService
}

func NewWebhookHandler(responseService service.ResponseService) *WebhookHandler {
	return &WebhookHandler{responseService: responseService}
}

// inboundMessage is the JSON fallback body; Twilio itself posts
// form-encoded From/Body fields.
type inboundMessage struct {
	From string `json:"From"`
	Body string `json:"Body"`
}

// HandleInbound receives one inbound WhatsApp message and routes it
// through the response state machine.
func (h *WebhookHandler) HandleInbound(c *gin.Context) {
	from := c.PostForm("From")
	body := c.PostForm("Body")

	if from == "" {
		var msg inboundMessage
		if err := c.ShouldBindJSON(&msg); err == nil {
			from = msg.From
			body = msg.Body
		}
	}

	if from == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Missing sender address",
		})
		return
	}

	err := h.responseService.HandleInbound(c.Request.Context(), from, body)
	if err != nil {
		if errors.Is(err, entity.ErrPatientNotFound) {
			// unknown senders are acknowledged so Twilio stops retrying
			c.JSON(http.StatusOK, SuccessResponse{
				Success: true,
				Message: "Sender not registered, message ignored",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Failed to process message: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Message processed",
	})
}
