package models

// VitalKind names a numeric reading. Each kind lives in its own collection.
type VitalKind string

const (
	VitalTemperature VitalKind = "temperature"
	VitalPain        VitalKind = "pain"
)

func (k VitalKind) IsValid() bool {
	switch k {
	case VitalTemperature, VitalPain:
		return true
	}
	return false
}

// Collection returns the collection (or table) holding readings of this kind.
func (k VitalKind) Collection() string {
	return string(k)
}

// VitalReading is a temperature or pain value.
type VitalReading struct {
	BaseModel   `bson:",inline"`
	Kind        VitalKind `gorm:"-" bson:"-" json:"kind"`
	Value       float64   `gorm:"not null" bson:"value" json:"value"`
	PhoneNumber string    `gorm:"size:32;index" bson:"phone_number" json:"phone_number,omitempty"`
}
