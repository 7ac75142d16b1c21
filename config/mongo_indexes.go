package config

import (
	"context"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func MongoDatabase() *mongo.Database {
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "jobboard"
	}
	return MongoClient.Database(dbName)
}

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}
	db := MongoDatabase()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// application_events: timeline reads are per application, oldest first
	events := db.Collection("application_events")
	_, err := events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "application_id", Value: 1}, {Key: "at", Value: 1}},
			Options: options.Index().SetName("by_application_at"),
		},
		{
			Keys:    bson.D{{Key: "job_id", Value: 1}, {Key: "at", Value: -1}},
			Options: options.Index().SetName("by_job_at"),
		},
	})
	return err
}
