package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType classifies a notification record.
type NotificationType string

const (
	NotifyJobAssigned     NotificationType = "job_assigned"
	NotifyJobUpdated      NotificationType = "job_updated"
	NotifyStatusChanged   NotificationType = "status_changed"
	NotifyPaymentReceived NotificationType = "payment_received"
)

// Notification is a per-user message about a job card.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	User      primitive.ObjectID  `bson:"user" json:"user"`
	Type      NotificationType    `bson:"type" json:"type"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	JobCard   *primitive.ObjectID `bson:"jobCard,omitempty" json:"jobCard,omitempty"`
	Read      bool                `bson:"read" json:"read"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// JobCardRef is the populated job card reference on a notification.
type JobCardRef struct {
	ID        primitive.ObjectID `json:"_id"`
	JobNumber string             `json:"jobNumber"`
	Status    JobStatus          `json:"status"`
}
