package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"patient-companion-server/internal/metrics"
	"patient-companion-server/internal/models"
	"patient-companion-server/internal/store"
)

var errStoreDown = errors.New("store down")

// failingStore behaves like the memory store except for the writes it is told to fail.
type failingStore struct {
	*store.Memory
	failCreate  bool
	failInsert  bool
	failList    bool
	failUpdate  error
	createCalls int
}

func (f *failingStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	f.createCalls++
	if f.failCreate {
		return store.ErrNotAcknowledged
	}
	return f.Memory.CreatePatient(ctx, p)
}

func (f *failingStore) UpdatePatientName(ctx context.Context, phoneNumber, name string) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	return f.Memory.UpdatePatientName(ctx, phoneNumber, name)
}

func (f *failingStore) InsertSymptom(ctx context.Context, s *models.Symptom) error {
	if f.failInsert {
		return store.ErrNotAcknowledged
	}
	return f.Memory.InsertSymptom(ctx, s)
}

func (f *failingStore) InsertVital(ctx context.Context, v *models.VitalReading) error {
	if f.failInsert {
		return store.ErrNotAcknowledged
	}
	return f.Memory.InsertVital(ctx, v)
}

func (f *failingStore) InsertImage(ctx context.Context, img *models.Image) error {
	if f.failInsert {
		return store.ErrNotAcknowledged
	}
	return f.Memory.InsertImage(ctx, img)
}

func (f *failingStore) ListSymptoms(ctx context.Context, owner string) ([]models.Symptom, error) {
	if f.failList {
		return nil, errStoreDown
	}
	return f.Memory.ListSymptoms(ctx, owner)
}

func newTestSession(st store.Store) *SessionService {
	return NewSessionService(st, metrics.NewCollector("test"), zap.NewNop())
}

func newTestRecords(st store.Store) *RecordService {
	return NewRecordService(st, metrics.NewCollector("test"), zap.NewNop())
}
