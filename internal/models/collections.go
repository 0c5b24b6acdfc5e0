package models

// Collection (mongo) and table (mysql) names.
const (
	CollectionCallers      = "callers"
	CollectionSymptoms     = "symptoms"
	CollectionAppointments = "appointments"
	CollectionImages       = "user_images"
	CollectionTexts        = "texts"
)
