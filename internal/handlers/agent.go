package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"patient-companion-server/internal/models"
	"patient-companion-server/internal/services"
	"patient-companion-server/internal/utils"
)

// AgentHandler serves the voice agent's tool calls under /agent.
type AgentHandler struct {
	sessions *services.SessionService
	records  *services.RecordService
	search   *services.SearchService
	callers  *CallerResolver
	log      *zap.Logger
}

// NewAgentHandler creates a new agent handler.
func NewAgentHandler(
	sessions *services.SessionService,
	records *services.RecordService,
	search *services.SearchService,
	callers *CallerResolver,
	log *zap.Logger,
) *AgentHandler {
	return &AgentHandler{
		sessions: sessions,
		records:  records,
		search:   search,
		callers:  callers,
		log:      log,
	}
}

type updateNameRequest struct {
	callerFields
	Name string `json:"name"`
}

type symptomRequest struct {
	callerFields
	Symptom string `json:"symptom"`
}

type temperatureRequest struct {
	callerFields
	Temperature utils.FlexFloat `json:"temperature"`
}

type painRequest struct {
	callerFields
	Pain utils.FlexFloat `json:"pain"`
}

type appointmentRequest struct {
	callerFields
	Appointment string `json:"appointment"`
}

type saveImageRequest struct {
	PhoneNumber  string `json:"phone_number"`
	ImageURL     string `json:"image_url"`
	CloudinaryID string `json:"cloudinary_id"`
	CreatedAt    string `json:"created_at"`
}

type searchRequest struct {
	SearchQuery string `json:"search_query"`
}

func agentOverride(agent gin.H) gin.H {
	return gin.H{"agent": agent}
}

// Init bootstraps the caller's session and returns the agent's opening line.
func (h *AgentHandler) Init(c *gin.Context) {
	var req callerFields
	if !bindJSON(c, &req) {
		return
	}

	callerID := h.callers.Resolve(c, req, false)
	if callerID == "" {
		utils.Error(c, "Missing caller_id", nil)
		return
	}

	g, err := h.sessions.Bootstrap(c.Request.Context(), callerID)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to create user", nil)
		return
	}

	utils.Success(c, "", gin.H{
		"dynamic_variables": gin.H{
			"name":         g.DisplayName,
			"phone_number": g.CallerID,
		},
		"conversation_config_override": agentOverride(gin.H{"first_message": g.Greeting}),
	})
}

// UpdateName sets the caller's display name, creating the caller if needed.
func (h *AgentHandler) UpdateName(c *gin.Context) {
	var req updateNameRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID := h.callers.Resolve(c, req.callerFields, true)
	if callerID == "" {
		utils.Error(c, "Missing caller_id", nil)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.Error(c, "Missing name parameter", nil)
		return
	}

	if _, err := h.sessions.SetName(c.Request.Context(), callerID, req.Name); err != nil {
		respondServiceError(c, h.log, err, "Failed to update name", nil)
		return
	}
	utils.Success(c, "Name updated to "+strings.TrimSpace(req.Name), nil)
}

// TakeSymptom records a symptom and, when the same keyword was in the
// caller's previous report, steers the agent towards booking a doctor.
func (h *AgentHandler) TakeSymptom(c *gin.Context) {
	var req symptomRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Symptom) == "" {
		utils.Error(c, "Missing 'symptom' field in request", nil)
		return
	}

	callerID := h.callers.Resolve(c, req.callerFields, true)
	ctx := c.Request.Context()

	sym, err := h.records.AppendSymptom(ctx, req.Symptom, callerID)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to save symptom to database", nil)
		return
	}

	if e := h.sessions.Escalate(ctx, callerID, sym.Symptom); e != nil {
		utils.Success(c, "Symptom saved successfully", gin.H{
			"conversation_config_override": agentOverride(gin.H{
				"prompt":        []gin.H{{"prompt": e.Prompt}},
				"first_message": e.FirstMessage,
			}),
		})
		return
	}
	utils.Success(c, "Symptom saved successfully: "+sym.Symptom, nil)
}

// GetSymptom returns the newest symptom across all callers.
func (h *AgentHandler) GetSymptom(c *gin.Context) {
	sym, err := h.records.LatestSymptom(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to load symptom", nil)
		return
	}
	if sym == nil {
		utils.Success(c, "No symptom data available", gin.H{"symptom": nil})
		return
	}
	utils.Success(c, "", gin.H{"symptom": sym.Symptom})
}

// TakeTemperature records a temperature in degrees Fahrenheit.
func (h *AgentHandler) TakeTemperature(c *gin.Context) {
	var req temperatureRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.Temperature.Set {
		utils.Error(c, "Missing 'temperature' field in request", nil)
		return
	}

	v, err := h.records.AppendVital(c.Request.Context(), models.VitalTemperature, req.Temperature.Value, h.callers.Resolve(c, req.callerFields, false))
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to save temperature to database", nil)
		return
	}
	utils.Success(c, fmt.Sprintf("Temperature saved successfully: %g°F", v.Value), nil)
}

// GetTemperature returns the newest temperature reading.
func (h *AgentHandler) GetTemperature(c *gin.Context) {
	v, err := h.records.LatestVital(c.Request.Context(), models.VitalTemperature)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to load temperature", nil)
		return
	}
	if v == nil {
		utils.Success(c, "No temperature data available", gin.H{"temperature": nil})
		return
	}
	utils.Success(c, "", gin.H{"temperature": v.Value})
}

// GetAllTemperatures lists temperatures, optionally filtered by phone_number.
func (h *AgentHandler) GetAllTemperatures(c *gin.Context) {
	h.listVitals(c, models.VitalTemperature, "temperatures", "temperature")
}

// TakePain records a pain level.
func (h *AgentHandler) TakePain(c *gin.Context) {
	var req painRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.Pain.Set {
		utils.Error(c, "Missing 'pain' field in request", nil)
		return
	}

	v, err := h.records.AppendVital(c.Request.Context(), models.VitalPain, req.Pain.Value, h.callers.Resolve(c, req.callerFields, false))
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to save pain to database", nil)
		return
	}
	utils.Success(c, fmt.Sprintf("Pain saved successfully: %g", v.Value), nil)
}

// GetAllPains lists pain levels, optionally filtered by phone_number.
func (h *AgentHandler) GetAllPains(c *gin.Context) {
	h.listVitals(c, models.VitalPain, "pains", "pain")
}

func (h *AgentHandler) listVitals(c *gin.Context, kind models.VitalKind, key, noun string) {
	readings, err := h.records.ListVitals(c.Request.Context(), kind, c.Query("phone_number"))
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to load "+noun+" records", gin.H{key: []models.VitalReading{}})
		return
	}
	if len(readings) == 0 {
		utils.Success(c, "No "+noun+" records found", gin.H{key: readings})
		return
	}
	utils.Success(c, fmt.Sprintf("Retrieved %d %s records", len(readings), noun), gin.H{key: readings})
}

// ScheduleAppointment stores an appointment note.
func (h *AgentHandler) ScheduleAppointment(c *gin.Context) {
	var req appointmentRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Appointment) == "" {
		utils.Error(c, "Missing appointment details", nil)
		return
	}

	_, err := h.records.AppendAppointment(c.Request.Context(), req.Appointment, h.callers.Resolve(c, req.callerFields, false))
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to save appointment to database", nil)
		return
	}
	utils.Success(c, "Appointment scheduled successfully", nil)
}

// SaveImage records an image that is already hosted. created_at is RFC 3339,
// usually with a trailing Z.
func (h *AgentHandler) SaveImage(c *gin.Context) {
	var req saveImageRequest
	if !bindJSON(c, &req) {
		return
	}

	var createdAt time.Time
	if raw := strings.TrimSpace(req.CreatedAt); raw != "" {
		t, err := parseTimestamp(raw)
		if err != nil {
			utils.Error(c, "Invalid request", gin.H{"errors": []string{"created_at: datetime"}})
			return
		}
		createdAt = t
	}

	_, err := h.records.AppendImage(c.Request.Context(), services.ImageInput{
		PhoneNumber:  req.PhoneNumber,
		ImageURL:     req.ImageURL,
		CloudinaryID: req.CloudinaryID,
		CreatedAt:    createdAt,
	})
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to save image to database", nil)
		return
	}
	utils.Success(c, "Image saved successfully", nil)
}

// GetAllImages lists image records, optionally filtered by phone_number.
func (h *AgentHandler) GetAllImages(c *gin.Context) {
	images, err := h.records.ListImages(c.Request.Context(), c.Query("phone_number"))
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to load images", gin.H{"images": []models.Image{}})
		return
	}
	if len(images) == 0 {
		utils.Success(c, "No images found", gin.H{"images": images})
		return
	}
	utils.Success(c, fmt.Sprintf("Retrieved %d images", len(images)), gin.H{"images": images})
}

// Search forwards the caller's question to the search API.
func (h *AgentHandler) Search(c *gin.Context) {
	var req searchRequest
	if !bindJSON(c, &req) {
		return
	}

	answer, err := h.search.Search(c.Request.Context(), req.SearchQuery)
	if err != nil {
		respondServiceError(c, h.log, err, "Search is unavailable right now", nil)
		return
	}
	utils.Success(c, "", gin.H{"result": answer})
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp accepts RFC 3339 and the zone-less ISO forms; a missing
// zone means UTC.
func parseTimestamp(raw string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
