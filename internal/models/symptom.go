package models

// Symptom is a free-text symptom report.
type Symptom struct {
	BaseModel   `bson:",inline"`
	Symptom     string `gorm:"type:text;not null" bson:"symptom" json:"symptom" validate:"required"`
	PhoneNumber string `gorm:"size:32;index" bson:"phone_number" json:"phone_number"`
}

func (Symptom) TableName() string {
	return CollectionSymptoms
}
