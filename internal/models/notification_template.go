package models

// NotificationTemplate is a subject/body pair rendered with text/template.
type NotificationTemplate struct {
	Kind    string `bson:"kind" json:"kind"`     // e.g. "closing_soon"
	Locale  string `bson:"locale" json:"locale"` // e.g. "en-CA"
	Subject string `bson:"subject" json:"subject"`
	Body    string `bson:"body" json:"body"`
}
