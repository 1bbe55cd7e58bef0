package models

import (
	"time"
)

// Listing is a vendor-published group-buy offer collected toward a target quantity.
type Listing struct {
	ID              string     `bson:"_id,omitempty" json:"id,omitempty"`
	VendorID        string     `bson:"vendor_id" json:"vendor_id"`
	VendorName      string     `bson:"vendor_name" json:"vendor_name"`
	ContactEmail    string     `bson:"contact_email,omitempty" json:"-"`
	Title           string     `bson:"title" json:"title"`
	Description     string     `bson:"description" json:"description"`
	Region          string     `bson:"region" json:"region"`     // e.g. "Toronto", "Hamilton", "Niagara"
	Category        string     `bson:"category" json:"category"` // e.g. "food", "household", "beauty"
	Price           float64    `bson:"price" json:"price"`       // unit price
	CurrentQuantity int        `bson:"current_quantity" json:"current_quantity"`
	TargetQuantity  int        `bson:"target_quantity" json:"target_quantity"`
	Deadline        *time.Time `bson:"deadline,omitempty" json:"deadline,omitempty"` // nil never expires by date
	Images          []string   `bson:"images" json:"images"`                         // S3 keys
	CreatedAt       *time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updated_at"`
	Deleted         bool       `bson:"deleted" json:"-"`
}
