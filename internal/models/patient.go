package models

import "time"

// PlaceholderName is stored for a caller until they tell us their name.
const PlaceholderName = "new_user"

// Patient is a caller, keyed by phone number.
type Patient struct {
	PhoneNumber string    `gorm:"primaryKey;size:32" bson:"_id" json:"phone_number" validate:"required"`
	Name        string    `gorm:"size:255;not null" bson:"name" json:"name" validate:"required"`
	CreatedAt   time.Time `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

func (Patient) TableName() string {
	return CollectionCallers
}
