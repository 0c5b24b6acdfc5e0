package routes

import (
	"github.com/gin-gonic/gin"

	"patient-companion-server/internal/handlers"
	"patient-companion-server/internal/metrics"
	"patient-companion-server/internal/store"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Agent     *handlers.AgentHandler
	Messaging *handlers.MessagingHandler
	Store     store.Store
	Metrics   *metrics.Collector
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, h Handlers) {
	agent := router.Group("/agent")
	{
		// Session
		agent.POST("/init", h.Agent.Init)
		agent.POST("/update-name", h.Agent.UpdateName)

		// Symptoms
		agent.POST("/take-symptom", h.Agent.TakeSymptom)
		agent.GET("/get-symptom", h.Agent.GetSymptom)

		// Vitals
		agent.POST("/take-temperature", h.Agent.TakeTemperature)
		agent.GET("/get-temperature", h.Agent.GetTemperature)
		agent.GET("/get-all-temperatures", h.Agent.GetAllTemperatures)
		agent.POST("/take-pain", h.Agent.TakePain)
		agent.GET("/get-all-pains", h.Agent.GetAllPains)

		agent.POST("/schedule-appointment", h.Agent.ScheduleAppointment)

		// Images
		agent.POST("/save-image", h.Agent.SaveImage)
		agent.GET("/get-all-images", h.Agent.GetAllImages)

		agent.POST("/search", h.Agent.Search)

		// Messaging provider callbacks
		agent.POST("/twilio-webhook", h.Messaging.TwilioWebhook)
		agent.POST("/incoming-text", h.Messaging.IncomingText)
	}

	router.GET("/health", handlers.Health(h.Store))
	router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
}
