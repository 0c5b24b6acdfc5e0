// Package services holds the agent's business rules: session bootstrap,
// persistent-symptom detection, record append/retrieval, MMS media
// ingestion and search.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"patient-companion-server/internal/metrics"
	"patient-companion-server/internal/models"
	"patient-companion-server/internal/store"
)

var tracer = otel.Tracer("patient-companion-server/services")

// Greeting is what the voice agent needs to open a call.
type Greeting struct {
	Greeting    string
	DisplayName string
	CallerID    string
	Created     bool
}

// SessionService owns the caller record: bootstrap, naming and symptom
// escalation.
type SessionService struct {
	store       store.Store
	metrics     *metrics.Collector
	log         *zap.Logger
	escalations []Escalation
}

// NewSessionService creates a session service with the default escalations.
func NewSessionService(st store.Store, m *metrics.Collector, log *zap.Logger) *SessionService {
	return &SessionService{
		store:       st,
		metrics:     m,
		log:         log,
		escalations: DefaultEscalations,
	}
}

// Bootstrap loads the caller or creates them with the placeholder name, and
// picks the opening greeting.
func (s *SessionService) Bootstrap(ctx context.Context, callerID string) (*Greeting, error) {
	ctx, span := tracer.Start(ctx, "SessionService.Bootstrap")
	defer span.End()

	if strings.TrimSpace(callerID) == "" {
		return nil, invalid("caller_id: required")
	}
	span.SetAttributes(attribute.String("caller.id", callerID))

	patient, err := s.store.FindPatient(ctx, callerID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s.register(ctx, callerID)
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "find patient")
		return nil, &PersistenceError{Op: "find patient", Err: err}
	}

	history, err := s.store.ListSymptoms(ctx, callerID)
	if err != nil {
		// An unreadable history only costs the caller the vitals prompt.
		s.log.Warn("loading symptom history failed", zap.String("caller_id", callerID), zap.Error(err))
		history = nil
	}

	g := &Greeting{DisplayName: patient.Name, CallerID: callerID}
	if len(history) > 0 {
		g.Greeting = vitalsGreeting(patient.Name)
	} else {
		g.Greeting = plainGreeting(patient.Name)
	}
	return g, nil
}

func (s *SessionService) register(ctx context.Context, callerID string) (*Greeting, error) {
	p := &models.Patient{PhoneNumber: callerID, Name: models.PlaceholderName}
	if err := s.store.CreatePatient(ctx, p); err != nil {
		s.log.Error("creating patient failed", zap.String("caller_id", callerID), zap.Error(err))
		return nil, &PersistenceError{Op: "create patient", Err: err}
	}
	s.metrics.PatientsCreatedTotal.Inc()
	s.log.Info("new patient registered", zap.String("caller_id", callerID))

	return &Greeting{
		Greeting:    newCallerGreeting,
		DisplayName: models.PlaceholderName,
		CallerID:    callerID,
		Created:     true,
	}, nil
}

// SetName updates the caller's display name, creating the caller when absent.
// It reports whether a new patient was created.
func (s *SessionService) SetName(ctx context.Context, callerID, name string) (bool, error) {
	ctx, span := tracer.Start(ctx, "SessionService.SetName")
	defer span.End()

	name = strings.TrimSpace(name)
	var missing []string
	if strings.TrimSpace(callerID) == "" {
		missing = append(missing, "caller_id: required")
	}
	if name == "" {
		missing = append(missing, "name: required")
	}
	if len(missing) > 0 {
		return false, invalid(missing...)
	}

	err := s.store.UpdatePatientName(ctx, callerID, name)
	if err == nil {
		s.log.Info("patient name updated", zap.String("caller_id", callerID))
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, &PersistenceError{Op: "update patient name", Err: err}
	}

	if err := s.store.CreatePatient(ctx, &models.Patient{PhoneNumber: callerID, Name: name}); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			return false, &PersistenceError{Op: "create patient", Err: err}
		}
		// Created concurrently between the update and the insert.
		if err := s.store.UpdatePatientName(ctx, callerID, name); err != nil {
			return false, &PersistenceError{Op: "update patient name", Err: err}
		}
		return false, nil
	}
	s.metrics.PatientsCreatedTotal.Inc()
	s.log.Info("patient created from name update", zap.String("caller_id", callerID))
	return true, nil
}

// IsPersistent reports whether the caller's previous symptom report, the
// second newest, mentions keyword. The newest report is checked by the caller.
func (s *SessionService) IsPersistent(ctx context.Context, callerID, keyword string) (bool, error) {
	history, err := s.store.ListSymptoms(ctx, callerID)
	if err != nil {
		return false, &PersistenceError{Op: "list symptoms", Err: err}
	}
	if len(history) < 2 {
		return false, nil
	}
	previous := strings.ToLower(history[1].Symptom)
	return strings.Contains(previous, strings.ToLower(keyword)), nil
}

// Escalate returns the override for the first keyword that appears in the
// just-saved symptom and in the report before it, or nil.
func (s *SessionService) Escalate(ctx context.Context, callerID, symptom string) *Escalation {
	if callerID == "" {
		return nil
	}
	current := strings.ToLower(symptom)
	for i := range s.escalations {
		e := &s.escalations[i]
		if !strings.Contains(current, e.Keyword) {
			continue
		}
		persistent, err := s.IsPersistent(ctx, callerID, e.Keyword)
		if err != nil {
			s.log.Warn("persistent symptom check failed", zap.String("caller_id", callerID), zap.Error(err))
			return nil
		}
		if persistent {
			s.metrics.EscalationsTotal.WithLabelValues(e.Keyword).Inc()
			s.log.Info("persistent symptom escalated",
				zap.String("caller_id", callerID), zap.String("keyword", e.Keyword))
			return e
		}
	}
	return nil
}

// MostRecentCaller returns the phone number of the newest patient.
//
// Deprecated: the answer is only correct with a single active caller. It
// backs the RECENT_CALLER_FALLBACK degraded mode.
func (s *SessionService) MostRecentCaller(ctx context.Context) (string, error) {
	p, err := s.store.MostRecentPatient(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", &PersistenceError{Op: "most recent patient", Err: err}
	}
	s.log.Warn("caller id resolved from most recent patient; this is not safe with concurrent callers",
		zap.String("caller_id", p.PhoneNumber))
	return p.PhoneNumber, nil
}
