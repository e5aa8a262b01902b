package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity actions recorded by the listing service.
const (
	ActionListingCreated = "listing_created"
	ActionListingDeleted = "listing_deleted"
	ActionDeleteDenied   = "delete_denied"
)

// Activity is a single listing event stored in MongoDB.
type Activity struct {
	ID         primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	UserID     string             `json:"user_id"     bson:"user_id"`
	Action     string             `json:"action"      bson:"action"`
	Kind       Kind               `json:"kind"        bson:"kind"`
	PropertyID string             `json:"property_id" bson:"property_id"`
	Title      string             `json:"title"       bson:"title"`
	CreatedAt  time.Time          `json:"created_at"  bson:"created_at"`
}
