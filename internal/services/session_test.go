package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"patient-companion-server/internal/models"
	"patient-companion-server/internal/store"
)

const caller = "+15550001"

func seedSymptoms(t *testing.T, st store.Store, owner string, texts ...string) {
	t.Helper()
	for _, text := range texts {
		if err := st.InsertSymptom(context.Background(), &models.Symptom{Symptom: text, PhoneNumber: owner}); err != nil {
			t.Fatalf("seeding symptom %q: %v", text, err)
		}
	}
}

func TestBootstrap_NewCaller(t *testing.T) {
	st := &failingStore{Memory: store.NewMemory()}
	svc := newTestSession(st)

	g, err := svc.Bootstrap(context.Background(), caller)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.Created {
		t.Error("expected a new patient to be created")
	}
	if g.Greeting != newCallerGreeting {
		t.Errorf("expected the name-request greeting, got %q", g.Greeting)
	}
	if g.DisplayName != models.PlaceholderName || g.CallerID != caller {
		t.Errorf("unexpected greeting fields: %+v", g)
	}
	if st.createCalls != 1 {
		t.Errorf("expected exactly one create, got %d", st.createCalls)
	}

	p, err := st.FindPatient(context.Background(), caller)
	if err != nil {
		t.Fatalf("patient not stored: %v", err)
	}
	if p.Name != models.PlaceholderName {
		t.Errorf("expected placeholder name, got %q", p.Name)
	}
}

func TestBootstrap_SecondCallDoesNotCreateAgain(t *testing.T) {
	st := &failingStore{Memory: store.NewMemory()}
	svc := newTestSession(st)

	if _, err := svc.Bootstrap(context.Background(), caller); err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}
	g, err := svc.Bootstrap(context.Background(), caller)
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if g.Created || st.createCalls != 1 {
		t.Errorf("expected no second create, created=%v calls=%d", g.Created, st.createCalls)
	}
	if g.Greeting != "Hey "+models.PlaceholderName {
		t.Errorf("unexpected greeting %q", g.Greeting)
	}
}

func TestBootstrap_PlainGreetingWithoutHistory(t *testing.T) {
	st := store.NewMemory()
	_ = st.CreatePatient(context.Background(), &models.Patient{PhoneNumber: caller, Name: "Ada"})
	seedSymptoms(t, st, "+15559999", "headache")

	g, err := newTestSession(st).Bootstrap(context.Background(), caller)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Greeting != "Hey Ada" {
		t.Errorf("expected plain greeting, got %q", g.Greeting)
	}
	if g.DisplayName != "Ada" {
		t.Errorf("expected display name Ada, got %q", g.DisplayName)
	}
}

func TestBootstrap_VitalsGreetingWithHistory(t *testing.T) {
	st := store.NewMemory()
	_ = st.CreatePatient(context.Background(), &models.Patient{PhoneNumber: caller, Name: "Ada"})
	seedSymptoms(t, st, caller, "swollen knee")

	g, err := newTestSession(st).Bootstrap(context.Background(), caller)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(g.Greeting, "Hey Ada, My name is Juni") {
		t.Errorf("expected vitals greeting, got %q", g.Greeting)
	}
	if !strings.Contains(g.Greeting, "scale of 1 to 10") || !strings.Contains(g.Greeting, "body temperature") {
		t.Errorf("vitals greeting should ask for pain and temperature: %q", g.Greeting)
	}
}

func TestBootstrap_HistoryReadFailureFallsBackToPlainGreeting(t *testing.T) {
	st := &failingStore{Memory: store.NewMemory(), failList: true}
	_ = st.CreatePatient(context.Background(), &models.Patient{PhoneNumber: caller, Name: "Ada"})

	g, err := newTestSession(st).Bootstrap(context.Background(), caller)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Greeting != "Hey Ada" {
		t.Errorf("expected plain greeting, got %q", g.Greeting)
	}
}

func TestBootstrap_CreateFailure(t *testing.T) {
	st := &failingStore{Memory: store.NewMemory(), failCreate: true}

	_, err := newTestSession(st).Bootstrap(context.Background(), caller)
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if !errors.Is(err, store.ErrNotAcknowledged) {
		t.Errorf("expected the store error to be wrapped, got %v", err)
	}
}

func TestBootstrap_EmptyCallerID(t *testing.T) {
	_, err := newTestSession(store.NewMemory()).Bootstrap(context.Background(), "  ")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestIsPersistent(t *testing.T) {
	tests := []struct {
		name    string
		history []string // oldest first
		keyword string
		want    bool
	}{
		{"no history", nil, "cough", false},
		{"single record", []string{"dry cough"}, "cough", false},
		{"previous report matches", []string{"fever", "dry cough", "new report"}, "cough", true},
		{"only newest matches", []string{"fever", "bad cough"}, "cough", false},
		{"case insensitive", []string{"Dry COUGH", "still coughing"}, "Cough", true},
		{"older match ignored", []string{"cough", "fever", "new report"}, "cough", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemory()
			seedSymptoms(t, st, caller, tt.history...)
			seedSymptoms(t, st, "+15559999", "cough", "cough")

			got, err := newTestSession(st).IsPersistent(context.Background(), caller, tt.keyword)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsPersistent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEscalate(t *testing.T) {
	st := store.NewMemory()
	svc := newTestSession(st)
	seedSymptoms(t, st, caller, "dry cough", "cough is worse")

	e := svc.Escalate(context.Background(), caller, "cough is worse")
	if e == nil {
		t.Fatal("expected an escalation")
	}
	if e.Keyword != "cough" || !strings.Contains(e.FirstMessage, "doctors appointment") {
		t.Errorf("unexpected escalation %+v", e)
	}

	if e := svc.Escalate(context.Background(), caller, "knee pain"); e != nil {
		t.Errorf("current report without the keyword must not escalate, got %+v", e)
	}
	if e := svc.Escalate(context.Background(), "", "cough"); e != nil {
		t.Errorf("unknown caller must not escalate, got %+v", e)
	}
}

func TestSetName(t *testing.T) {
	st := store.NewMemory()
	svc := newTestSession(st)
	ctx := context.Background()

	created, err := svc.SetName(ctx, caller, "Ada")
	if err != nil || !created {
		t.Fatalf("expected creation, created=%v err=%v", created, err)
	}

	for i := 0; i < 2; i++ {
		created, err = svc.SetName(ctx, caller, "Grace")
		if err != nil || created {
			t.Fatalf("expected in-place update, created=%v err=%v", created, err)
		}
	}

	p, _ := st.FindPatient(ctx, caller)
	if p.Name != "Grace" {
		t.Errorf("expected name Grace, got %q", p.Name)
	}
}

func TestSetName_Validation(t *testing.T) {
	_, err := newTestSession(store.NewMemory()).SetName(context.Background(), "", " ")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Errorf("expected both fields reported, got %v", verr.Fields)
	}
}

func TestSetName_StoreFailure(t *testing.T) {
	st := &failingStore{Memory: store.NewMemory(), failUpdate: errStoreDown}

	_, err := newTestSession(st).SetName(context.Background(), caller, "Ada")
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestMostRecentCaller(t *testing.T) {
	st := store.NewMemory()
	svc := newTestSession(st)
	ctx := context.Background()

	id, err := svc.MostRecentCaller(ctx)
	if err != nil || id != "" {
		t.Fatalf("expected no caller on empty store, got %q err=%v", id, err)
	}

	_ = st.CreatePatient(ctx, &models.Patient{PhoneNumber: "+1", Name: "a"})
	_ = st.CreatePatient(ctx, &models.Patient{PhoneNumber: "+2", Name: "b"})

	id, err = svc.MostRecentCaller(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "+2" {
		t.Errorf("expected +2, got %q", id)
	}
}
