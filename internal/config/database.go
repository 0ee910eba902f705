package config

import (
	"context"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type MongoDBConfig struct {
	URI      string
	Database string
}

func NewMongoDBConfig(log *zap.Logger) *MongoDBConfig {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		log.Fatal("MONGO_URI not set")
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "coswoDB"
	}
	return &MongoDBConfig{URI: uri, Database: dbName}
}

type MongoDBClient struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDBClient(lc fx.Lifecycle, config *MongoDBConfig, log *zap.Logger) (*MongoDBClient, *mongo.Database, error) {
	clientOptions := options.Client().ApplyURI(config.URI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", zap.Error(err))
	}

	log.Info("Connected to MongoDB", zap.String("database", config.Database))

	db := client.Database(config.Database)

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			return ensureIndexes(startCtx, db)
		},
		OnStop: func(stopCtx context.Context) error {
			log.Info("Closing MongoDB connection ...")
			return client.Disconnect(stopCtx)
		},
	})

	return &MongoDBClient{Client: client, Database: db}, db, nil
}

// ensureIndexes creates the indexes the lifecycle engine relies on: unique user
// emails, a unique donor number for users that have one, and the filters the
// donation queries run on.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.M{"email": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.M{"donor_id": 1},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"donor_id": bson.M{"$exists": true}}),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("donations").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "donor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.M{"status": 1}},
		{Keys: bson.D{{Key: "handled_by", Value: 1}, {Key: "handled_at", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("donation_proofs").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.M{"donation_id": 1},
	})
	return err
}

func (c *MongoDBClient) GetCollection(collectionName string) *mongo.Collection {
	return c.Database.Collection(collectionName)
}
