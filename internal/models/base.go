package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel contains common columns for all append-only records.
// IDs are UUIDv7 so lexical order follows insertion order.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	CreatedAt time.Time `gorm:"index" bson:"created_at" json:"created_at"`
}

// Prepare assigns an ID and, if the caller did not supply one, a creation time.
func (base *BaseModel) Prepare(now time.Time) {
	if base.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		base.ID = id.String()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now.UTC()
	}
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *BaseModel) BeforeCreate(tx *gorm.DB) error {
	base.Prepare(time.Now())
	return nil
}

// Newer reports whether a sorts before b in newest-first order.
func Newer(a, b BaseModel) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
