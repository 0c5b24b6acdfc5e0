package store

import (
	"context"
	"testing"

	"patient-companion-server/internal/models"
)

func TestMemory_Contract(t *testing.T) {
	testStoreContract(t, func(*testing.T) Store { return NewMemory() })
}

func TestMemory_InsertAssignsIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	txt := &models.Text{Text: "hello", PhoneNumber: "+1"}
	if err := m.InsertText(ctx, txt); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if txt.ID == "" || txt.CreatedAt.IsZero() {
		t.Errorf("expected id and created_at to be assigned, got %+v", txt.BaseModel)
	}

	a := &models.Appointment{Description: "tuesday 3pm"}
	_ = m.InsertAppointment(ctx, a)
	if got := m.Appointments(); len(got) != 1 || got[0].Description != "tuesday 3pm" {
		t.Errorf("unexpected appointments %+v", got)
	}
}
