package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"patient-companion-server/internal/models"
)

// testStoreContract runs the behaviour every driver must share. open returns
// an empty, migrated store.
func testStoreContract(t *testing.T, open func(t *testing.T) Store) {
	t.Run("patient lifecycle", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		if _, err := s.FindPatient(ctx, "+15550001"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := s.CreatePatient(ctx, &models.Patient{PhoneNumber: "+15550001", Name: models.PlaceholderName}); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := s.CreatePatient(ctx, &models.Patient{PhoneNumber: "+15550001", Name: "x"}); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}

		if err := s.UpdatePatientName(ctx, "+15550001", "Ada"); err != nil {
			t.Fatalf("update: %v", err)
		}
		if err := s.UpdatePatientName(ctx, "+15550001", "Ada"); err != nil {
			t.Fatalf("repeating an update should succeed, got %v", err)
		}
		got, err := s.FindPatient(ctx, "+15550001")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.Name != "Ada" {
			t.Errorf("expected name Ada, got %s", got.Name)
		}

		if err := s.UpdatePatientName(ctx, "+19990000", "Bob"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound updating unknown caller, got %v", err)
		}
		if _, err := s.FindPatient(ctx, "+19990000"); !errors.Is(err, ErrNotFound) {
			t.Errorf("a missed update must not create the caller, got %v", err)
		}
	})

	t.Run("most recent patient", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		if _, err := s.MostRecentPatient(ctx); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on empty store, got %v", err)
		}
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		_ = s.CreatePatient(ctx, &models.Patient{PhoneNumber: "+1", Name: "a", CreatedAt: base})
		_ = s.CreatePatient(ctx, &models.Patient{PhoneNumber: "+2", Name: "b", CreatedAt: base.Add(time.Minute)})

		p, err := s.MostRecentPatient(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.PhoneNumber != "+2" {
			t.Errorf("expected +2, got %s", p.PhoneNumber)
		}
	})

	t.Run("symptoms newest first with ties", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		tie := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		if _, err := s.LatestSymptom(ctx); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on empty store, got %v", err)
		}

		for _, text := range []string{"fever", "dry cough", "new report"} {
			sym := &models.Symptom{Symptom: text, PhoneNumber: "+1"}
			sym.CreatedAt = tie
			if err := s.InsertSymptom(ctx, sym); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}
		other := &models.Symptom{Symptom: "other caller", PhoneNumber: "+2"}
		other.CreatedAt = tie.Add(time.Second)
		_ = s.InsertSymptom(ctx, other)

		got, err := s.ListSymptoms(ctx, "+1")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		want := []string{"new report", "dry cough", "fever"}
		if len(got) != len(want) {
			t.Fatalf("expected %d symptoms, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i].Symptom != want[i] {
				t.Errorf("position %d: expected %q, got %q", i, want[i], got[i].Symptom)
			}
		}

		all, _ := s.ListSymptoms(ctx, "")
		if len(all) != 4 {
			t.Errorf("expected 4 symptoms across owners, got %d", len(all))
		}
		latest, err := s.LatestSymptom(ctx)
		if err != nil {
			t.Fatalf("latest: %v", err)
		}
		if latest.Symptom != "other caller" {
			t.Errorf("expected newest symptom, got %q", latest.Symptom)
		}
	})

	t.Run("list orders by created_at", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		older := &models.Image{PhoneNumber: "+1", ImageURL: "https://img/1", CloudinaryID: "a"}
		older.CreatedAt = base
		newer := &models.Image{PhoneNumber: "+1", ImageURL: "https://img/2", CloudinaryID: "b"}
		newer.CreatedAt = base.Add(time.Hour)

		// inserted out of order on purpose
		_ = s.InsertImage(ctx, newer)
		_ = s.InsertImage(ctx, older)

		got, err := s.ListImages(ctx, "+1")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 2 || got[0].CloudinaryID != "b" || got[1].CloudinaryID != "a" {
			t.Fatalf("expected [b a], got %+v", got)
		}
	})

	t.Run("vitals are separated by kind", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		if _, err := s.LatestVital(ctx, models.VitalTemperature); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		readings := []*models.VitalReading{
			{Kind: models.VitalTemperature, Value: 99.1, PhoneNumber: "+1"},
			{Kind: models.VitalPain, Value: 4, PhoneNumber: "+1"},
			{Kind: models.VitalTemperature, Value: 101.2, PhoneNumber: "+1"},
		}
		for i, v := range readings {
			v.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			if err := s.InsertVital(ctx, v); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}

		latest, err := s.LatestVital(ctx, models.VitalTemperature)
		if err != nil {
			t.Fatalf("latest: %v", err)
		}
		if latest.Value != 101.2 || latest.Kind != models.VitalTemperature {
			t.Errorf("expected temperature 101.2, got %+v", latest)
		}

		pains, _ := s.ListVitals(ctx, models.VitalPain, "")
		if len(pains) != 1 || pains[0].Value != 4 || pains[0].Kind != models.VitalPain {
			t.Errorf("expected a single pain reading of 4, got %+v", pains)
		}
	})

	t.Run("texts filter by owner", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)

		_ = s.InsertText(ctx, &models.Text{Text: "hello", PhoneNumber: "+1"})
		_ = s.InsertText(ctx, &models.Text{Text: "hi", PhoneNumber: "+2"})

		got, err := s.ListTexts(ctx, "+1")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].Text != "hello" {
			t.Errorf("unexpected texts %+v", got)
		}
		if got[0].ID == "" {
			t.Error("expected an id to be assigned")
		}
	})
}
