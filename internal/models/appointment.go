package models

// Appointment is a free-text appointment note. Owner linkage is optional.
type Appointment struct {
	BaseModel   `bson:",inline"`
	Description string `gorm:"type:text;not null" bson:"description" json:"appointment" validate:"required"`
	PhoneNumber string `gorm:"size:32;index" bson:"phone_number,omitempty" json:"phone_number,omitempty"`
}

func (Appointment) TableName() string {
	return CollectionAppointments
}
