package transport

import (
	"errors"
	"net/http"

	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/cuidador-digital/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type RegistrationHandler struct {
	registrationService service.RegistrationService
}

func NewRegistrationHandler(registrationService service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// Register takes the intake payload from the registration site and
// creates the guardian, patient, contacts and medications in one call.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req service.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
		})
		return
	}

	result, err := h.registrationService.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrConsentRequired):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Success: false,
				Error:   "LGPD consent is required",
			})
		case errors.Is(err, entity.ErrTooManyContacts):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Success: false,
				Error:   "At most 2 emergency contacts are allowed",
			})
		case errors.Is(err, entity.ErrInvalidWhatsApp):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Success: false,
				Error:   "WhatsApp numbers must have 10 or 11 digits",
			})
		case errors.Is(err, entity.ErrInvalidTimeOfDay):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Success: false,
				Error:   "Medication times must use the HH:MM format",
			})
		case errors.Is(err, entity.ErrInvalidWeekday):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Success: false,
				Error:   "Weekdays must be between 0 (Sunday) and 6 (Saturday)",
			})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Success: false,
				Error:   "Registration failed: " + err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Registration completed",
		Data:    result,
	})
}
