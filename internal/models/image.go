package models

// Image is a patient photo hosted by the image hosting provider.
// CreatedAt is supplied by the caller for this kind.
type Image struct {
	BaseModel    `bson:",inline"`
	PhoneNumber  string `gorm:"size:32;index;not null" bson:"phone_number" json:"phone_number" validate:"required"`
	ImageURL     string `gorm:"type:text;not null" bson:"image_url" json:"image_url" validate:"required,url"`
	CloudinaryID string `gorm:"size:255;not null" bson:"cloudinary_id" json:"cloudinary_id" validate:"required"`
}

func (Image) TableName() string {
	return CollectionImages
}
