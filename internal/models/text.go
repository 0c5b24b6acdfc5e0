package models

// Text is a raw inbound text body.
type Text struct {
	BaseModel   `bson:",inline"`
	Text        string `gorm:"type:text;not null" bson:"text" json:"text" validate:"required"`
	PhoneNumber string `gorm:"size:32;index" bson:"phone_number" json:"phone_number,omitempty"`
}

func (Text) TableName() string {
	return CollectionTexts
}
