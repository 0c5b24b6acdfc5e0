package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"patient-companion-server/internal/metrics"
	"patient-companion-server/internal/models"
	"patient-companion-server/internal/store"
	"patient-companion-server/internal/utils"
)

// RecordService appends and reads the append-only logs. Every write is
// validated first; nothing reaches the store on a ValidationError.
type RecordService struct {
	store   store.Store
	metrics *metrics.Collector
	log     *zap.Logger
}

// NewRecordService creates a new record service.
func NewRecordService(st store.Store, m *metrics.Collector, log *zap.Logger) *RecordService {
	return &RecordService{store: st, metrics: m, log: log}
}

// ImageInput is a pre-hosted image. CreatedAt comes from the caller.
type ImageInput struct {
	PhoneNumber  string
	ImageURL     string
	CloudinaryID string
	CreatedAt    time.Time
}

// AppendSymptom stores a symptom report. owner may be empty.
func (s *RecordService) AppendSymptom(ctx context.Context, text, owner string) (*models.Symptom, error) {
	sym := &models.Symptom{Symptom: strings.TrimSpace(text), PhoneNumber: owner}
	if err := utils.Validate(sym); err != nil {
		return nil, invalid(utils.ValidationFields(err)...)
	}
	if err := s.store.InsertSymptom(ctx, sym); err != nil {
		return nil, s.writeFailed("insert symptom", err)
	}
	s.appended("symptom")
	return sym, nil
}

// AppendVital stores a temperature or pain reading. Non-finite values are
// rejected.
func (s *RecordService) AppendVital(ctx context.Context, kind models.VitalKind, value float64, owner string) (*models.VitalReading, error) {
	if !kind.IsValid() {
		return nil, invalid("kind: oneof temperature pain")
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, invalid(string(kind) + ": numeric")
	}
	v := &models.VitalReading{Kind: kind, Value: value, PhoneNumber: owner}
	if err := s.store.InsertVital(ctx, v); err != nil {
		return nil, s.writeFailed("insert "+string(kind), err)
	}
	s.appended(string(kind))
	return v, nil
}

// AppendAppointment stores a free-text appointment note.
func (s *RecordService) AppendAppointment(ctx context.Context, description, owner string) (*models.Appointment, error) {
	a := &models.Appointment{Description: strings.TrimSpace(description), PhoneNumber: owner}
	if err := utils.Validate(a); err != nil {
		return nil, invalid(utils.ValidationFields(err)...)
	}
	if err := s.store.InsertAppointment(ctx, a); err != nil {
		return nil, s.writeFailed("insert appointment", err)
	}
	s.appended("appointment")
	return a, nil
}

// AppendImage records an image that is already hosted. Every field is
// required.
func (s *RecordService) AppendImage(ctx context.Context, in ImageInput) (*models.Image, error) {
	img := &models.Image{
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		ImageURL:     strings.TrimSpace(in.ImageURL),
		CloudinaryID: strings.TrimSpace(in.CloudinaryID),
	}
	var fields []string
	if err := utils.Validate(img); err != nil {
		fields = utils.ValidationFields(err)
	}
	if in.CreatedAt.IsZero() {
		fields = append(fields, "created_at: required")
	}
	if len(fields) > 0 {
		return nil, invalid(fields...)
	}

	img.CreatedAt = in.CreatedAt.UTC()
	if err := s.store.InsertImage(ctx, img); err != nil {
		return nil, s.writeFailed("insert image", err)
	}
	s.appended("image")
	return img, nil
}

// AppendText stores an inbound text message.
func (s *RecordService) AppendText(ctx context.Context, body, owner string) (*models.Text, error) {
	t := &models.Text{Text: strings.TrimSpace(body), PhoneNumber: owner}
	if err := utils.Validate(t); err != nil {
		return nil, invalid(utils.ValidationFields(err)...)
	}
	if err := s.store.InsertText(ctx, t); err != nil {
		return nil, s.writeFailed("insert text", err)
	}
	s.appended("text")
	return t, nil
}

// LatestSymptom returns the newest symptom across all callers, or nil when
// there is none.
func (s *RecordService) LatestSymptom(ctx context.Context) (*models.Symptom, error) {
	sym, err := s.store.LatestSymptom(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "latest symptom", Err: err}
	}
	return sym, nil
}

// LatestVital returns the newest reading of kind, or nil when there is none.
func (s *RecordService) LatestVital(ctx context.Context, kind models.VitalKind) (*models.VitalReading, error) {
	if !kind.IsValid() {
		return nil, invalid("kind: oneof temperature pain")
	}
	v, err := s.store.LatestVital(ctx, kind)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "latest " + string(kind), Err: err}
	}
	return v, nil
}

// ListSymptoms returns symptoms newest first. An empty owner lists all callers.
func (s *RecordService) ListSymptoms(ctx context.Context, owner string) ([]models.Symptom, error) {
	out, err := s.store.ListSymptoms(ctx, owner)
	if err != nil {
		return nil, &PersistenceError{Op: "list symptoms", Err: err}
	}
	return out, nil
}

// ListVitals returns readings of kind newest first.
func (s *RecordService) ListVitals(ctx context.Context, kind models.VitalKind, owner string) ([]models.VitalReading, error) {
	if !kind.IsValid() {
		return nil, invalid("kind: oneof temperature pain")
	}
	out, err := s.store.ListVitals(ctx, kind, owner)
	if err != nil {
		return nil, &PersistenceError{Op: "list " + string(kind), Err: err}
	}
	return out, nil
}

// ListImages returns image records newest first.
func (s *RecordService) ListImages(ctx context.Context, owner string) ([]models.Image, error) {
	out, err := s.store.ListImages(ctx, owner)
	if err != nil {
		return nil, &PersistenceError{Op: "list images", Err: err}
	}
	return out, nil
}

// ListTexts returns text messages newest first.
func (s *RecordService) ListTexts(ctx context.Context, owner string) ([]models.Text, error) {
	out, err := s.store.ListTexts(ctx, owner)
	if err != nil {
		return nil, &PersistenceError{Op: "list texts", Err: err}
	}
	return out, nil
}

func (s *RecordService) writeFailed(op string, err error) error {
	s.log.Error("store write failed", zap.String("op", op), zap.Error(err))
	return &PersistenceError{Op: op, Err: err}
}

func (s *RecordService) appended(kind string) {
	s.metrics.RecordsAppended.WithLabelValues(kind).Inc()
}
