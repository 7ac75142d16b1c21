package mongo

import (
	"context"
	"time"

	"github.com/yoockh/jobboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const EventsCollection = "application_events"

type EventRepository interface {
	Append(ctx context.Context, e *models.ApplicationEvent) error
	ListByApplication(ctx context.Context, applicationID string, limit int64) ([]models.ApplicationEvent, error)
}

type eventRepo struct {
	col *mongo.Collection
}

func NewEventRepo(db *mongo.Database) EventRepository {
	return &eventRepo{col: db.Collection(EventsCollection)}
}

func (r *eventRepo) Append(ctx context.Context, e *models.ApplicationEvent) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r *eventRepo) ListByApplication(ctx context.Context, applicationID string, limit int64) ([]models.ApplicationEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	cur, err := r.col.Find(ctx,
		bson.M{"application_id": applicationID},
		options.Find().
			SetSort(bson.D{{Key: "at", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ApplicationEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
