package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"patient-companion-server/internal/models"
)

// Memory keeps everything in process. It backs STORE_DRIVER=memory and tests.
type Memory struct {
	mu           sync.RWMutex
	patients     []models.Patient
	symptoms     []models.Symptom
	vitals       map[models.VitalKind][]models.VitalReading
	appointments []models.Appointment
	images       []models.Image
	texts        []models.Text
	now          func() time.Time
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		vitals: make(map[models.VitalKind][]models.VitalReading),
		now:    time.Now,
	}
}

func (m *Memory) FindPatient(_ context.Context, phoneNumber string) (*models.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.patients {
		if m.patients[i].PhoneNumber == phoneNumber {
			p := m.patients[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) MostRecentPatient(_ context.Context) (*models.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.patients) == 0 {
		return nil, ErrNotFound
	}
	p := m.patients[len(m.patients)-1]
	return &p, nil
}

func (m *Memory) CreatePatient(_ context.Context, p *models.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.patients {
		if m.patients[i].PhoneNumber == p.PhoneNumber {
			return ErrDuplicate
		}
	}
	now := m.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.patients = append(m.patients, *p)
	return nil
}

func (m *Memory) UpdatePatientName(_ context.Context, phoneNumber, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.patients {
		if m.patients[i].PhoneNumber == phoneNumber {
			m.patients[i].Name = name
			m.patients[i].UpdatedAt = m.now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) InsertSymptom(_ context.Context, s *models.Symptom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Prepare(m.now())
	m.symptoms = append(m.symptoms, *s)
	return nil
}

func (m *Memory) ListSymptoms(_ context.Context, owner string) ([]models.Symptom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Symptom, 0, len(m.symptoms))
	for _, s := range m.symptoms {
		if owner == "" || s.PhoneNumber == owner {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return models.Newer(out[i].BaseModel, out[j].BaseModel) })
	return out, nil
}

func (m *Memory) LatestSymptom(ctx context.Context) (*models.Symptom, error) {
	all, _ := m.ListSymptoms(ctx, "")
	if len(all) == 0 {
		return nil, ErrNotFound
	}
	return &all[0], nil
}

func (m *Memory) InsertVital(_ context.Context, v *models.VitalReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.Prepare(m.now())
	m.vitals[v.Kind] = append(m.vitals[v.Kind], *v)
	return nil
}

func (m *Memory) ListVitals(_ context.Context, kind models.VitalKind, owner string) ([]models.VitalReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.VitalReading, 0, len(m.vitals[kind]))
	for _, v := range m.vitals[kind] {
		if owner == "" || v.PhoneNumber == owner {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return models.Newer(out[i].BaseModel, out[j].BaseModel) })
	return out, nil
}

func (m *Memory) LatestVital(ctx context.Context, kind models.VitalKind) (*models.VitalReading, error) {
	all, _ := m.ListVitals(ctx, kind, "")
	if len(all) == 0 {
		return nil, ErrNotFound
	}
	return &all[0], nil
}

func (m *Memory) InsertAppointment(_ context.Context, a *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.Prepare(m.now())
	m.appointments = append(m.appointments, *a)
	return nil
}

// Appointments returns every stored appointment in insertion order.
func (m *Memory) Appointments() []models.Appointment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Appointment(nil), m.appointments...)
}

func (m *Memory) InsertImage(_ context.Context, img *models.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	img.Prepare(m.now())
	m.images = append(m.images, *img)
	return nil
}

func (m *Memory) ListImages(_ context.Context, owner string) ([]models.Image, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Image, 0, len(m.images))
	for _, img := range m.images {
		if owner == "" || img.PhoneNumber == owner {
			out = append(out, img)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return models.Newer(out[i].BaseModel, out[j].BaseModel) })
	return out, nil
}

func (m *Memory) InsertText(_ context.Context, t *models.Text) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.Prepare(m.now())
	m.texts = append(m.texts, *t)
	return nil
}

func (m *Memory) ListTexts(_ context.Context, owner string) ([]models.Text, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Text, 0, len(m.texts))
	for _, t := range m.texts {
		if owner == "" || t.PhoneNumber == owner {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return models.Newer(out[i].BaseModel, out[j].BaseModel) })
	return out, nil
}

func (m *Memory) EnsureSchema(context.Context) error { return nil }

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close(context.Context) error { return nil }
