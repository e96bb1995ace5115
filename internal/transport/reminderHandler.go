package transport

import (
	"errors"
	"net/http"

	"github.com/cuidador-digital/backend/internal/entity"
	"github.com/cuidador-digital/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type ReminderHandler struct {
	reminderService   service.ReminderService
	escalationService service.EscalationService
	reportService     service.ReportService
}

func NewReminderHandler(
	reminderService service.ReminderService,
	escalationService service.EscalationService,
	reportService service.ReportService,
) *ReminderHandler {
	return &ReminderHandler{
		reminderService:   reminderService,
		escalationService: escalationService,
		reportService:     reportService,
	}
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type SendReminderRequest struct {
	PatientID    string `json:"patient_id" binding:"required"`
	MedicationID string `json:"medication_id" binding:"required"`
}

// SendReminder fires one reminder immediately, outside the scan cycle.
func (h *ReminderHandler) SendReminder(c *gin.Context) {
	var req SendReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
		})
		return
	}

	record, result, err := h.reminderService.SendManualReminder(c.Request.Context(), req.PatientID, req.MedicationID)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrPatientNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Success: false,
				Error:   "Patient not found",
			})
		case errors.Is(err, entity.ErrMedicationNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Success: false,
				Error:   "Medication not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Success: false,
				Error:   "Failed to send reminder: " + err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Reminder sent",
		Data:    record,
		Meta: map[string]interface{}{
			"delivered": result.Delivered,
			"sid":       result.SID,
		},
	})
}

// TriggerDueScan runs one due-reminder scan on demand.
func (h *ReminderHandler) TriggerDueScan(c *gin.Context) {
	report, err := h.reminderService.RunDueScan(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Due-reminder scan failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Due-reminder scan completed",
		Data:    report,
	})
}

// TriggerEscalationScan runs one escalation scan on demand.
func (h *ReminderHandler) TriggerEscalationScan(c *gin.Context) {
	escalated, err := h.escalationService.RunEscalationScan(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Escalation scan failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Escalation scan completed",
		Meta: map[string]interface{}{
			"escalated": escalated,
		},
	})
}

// TriggerDailyReport runs one daily summary pass on demand.
func (h *ReminderHandler) TriggerDailyReport(c *gin.Context) {
	sent, err := h.reportService.RunDailyReport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Daily report failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Daily report completed",
		Meta: map[string]interface{}{
			"reports_sent": sent,
		},
	})
}
