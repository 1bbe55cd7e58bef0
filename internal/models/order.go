package models

import (
	"time"
)

// Order records a user's commitment to a group buy. ProductID refers to Listing.ID.
type Order struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID string    `bson:"product_id" json:"product_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	UnitPrice float64   `bson:"unit_price" json:"unit_price"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
