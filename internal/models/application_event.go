package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplicationEvent is one entry of an application's status timeline.
type ApplicationEvent struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ApplicationID string             `bson:"application_id" json:"application_id"`
	JobID         string             `bson:"job_id" json:"job_id"`
	ActorID       string             `bson:"actor_id" json:"actor_id"`
	From          ApplicationStatus  `bson:"from,omitempty" json:"from,omitempty"`
	To            ApplicationStatus  `bson:"to" json:"to"`
	Note          string             `bson:"note,omitempty" json:"note,omitempty"`
	At            time.Time          `bson:"at" json:"at"`
}
