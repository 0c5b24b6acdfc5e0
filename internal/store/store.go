// Package store is the record store behind the agent: patients plus the
// append-only symptom, vital, appointment, image and text logs.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"patient-companion-server/internal/config"
	"patient-companion-server/internal/models"
)

var (
	// ErrNotFound is returned when a single-record lookup matches nothing.
	ErrNotFound = errors.New("store: record not found")
	// ErrNotAcknowledged is returned when the backend did not confirm a write.
	ErrNotAcknowledged = errors.New("store: write not acknowledged")
	// ErrDuplicate is returned when a patient with the same phone number exists.
	ErrDuplicate = errors.New("store: duplicate key")
)

// Store is implemented by every driver. List methods return records
// newest-first; an empty owner means all owners. Latest methods return
// ErrNotFound when the collection is empty.
type Store interface {
	FindPatient(ctx context.Context, phoneNumber string) (*models.Patient, error)
	MostRecentPatient(ctx context.Context) (*models.Patient, error)
	CreatePatient(ctx context.Context, p *models.Patient) error
	UpdatePatientName(ctx context.Context, phoneNumber, name string) error

	InsertSymptom(ctx context.Context, s *models.Symptom) error
	ListSymptoms(ctx context.Context, owner string) ([]models.Symptom, error)
	LatestSymptom(ctx context.Context) (*models.Symptom, error)

	InsertVital(ctx context.Context, v *models.VitalReading) error
	ListVitals(ctx context.Context, kind models.VitalKind, owner string) ([]models.VitalReading, error)
	LatestVital(ctx context.Context, kind models.VitalKind) (*models.VitalReading, error)

	InsertAppointment(ctx context.Context, a *models.Appointment) error

	InsertImage(ctx context.Context, img *models.Image) error
	ListImages(ctx context.Context, owner string) ([]models.Image, error)

	InsertText(ctx context.Context, t *models.Text) error
	ListTexts(ctx context.Context, owner string) ([]models.Text, error)

	// EnsureSchema creates indexes or tables. It is idempotent.
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects the driver selected in cfg.
func Open(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	case config.DriverMySQL:
		return NewSQL(cfg.MySQL, log)
	case config.DriverMemory:
		log.Warn("using in-memory store; records are lost on restart")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
