package transport

import (
	"github.com/cuidador-digital/backend/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

func InitRoutes(
	healthHandler *HealthHandler,
	registrationHandler *RegistrationHandler,
	webhookHandler *WebhookHandler,
	reminderHandler *ReminderHandler,
) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))

	// Health check
	router.GET("/health", healthHandler.Check)

	// API routes
	api := router.Group("/api")
	{
		api.POST("/registration", registrationHandler.Register)

		whatsApp := api.Group("/whatsapp")
		{
			whatsApp.POST("/webhook", webhookHandler.HandleInbound)
		}

		reminders := api.Group("/reminders")
		{
			reminders.POST("/send", reminderHandler.SendReminder)
		}

		// manual runs of the scheduled jobs, for operators and smoke tests
		triggers := api.Group("/triggers")
		{
			triggers.POST("/due-scan", reminderHandler.TriggerDueScan)
			triggers.POST("/escalation-scan", reminderHandler.TriggerEscalationScan)
			triggers.POST("/daily-report", reminderHandler.TriggerDailyReport)
		}
	}

	return router
}
