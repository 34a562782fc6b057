// Package mongo хранит датасеты витрины в коллекции MongoDB (один документ на датасет).
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultDatabase   = "storefront"
	datasetCollection = "datasets"
	connectTimeout    = 10 * time.Second
)

// datasetDocument документ коллекции datasets. Payload хранится строкой,
// чтобы байты JSON возвращались без перекодирования через BSON.
type datasetDocument struct {
	Name      string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Store реализует domain.Store поверх MongoDB.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Open подключается к MongoDB по uri и проверяет доступность primary.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		database = defaultDatabase
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{
		client:     client,
		collection: client.Database(database).Collection(datasetCollection),
	}, nil
}

// Read возвращает payload датасета.
func (s *Store) Read(ctx context.Context, dataset domain.Dataset) ([]byte, error) {
	if !dataset.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDataset, dataset)
	}

	var doc datasetDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": string(dataset)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find dataset %s: %w", dataset, err)
	}
	return []byte(doc.Payload), nil
}

// Write заменяет payload датасета (upsert) и увеличивает версию документа.
func (s *Store) Write(ctx context.Context, dataset domain.Dataset, data []byte) error {
	if !dataset.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownDataset, dataset)
	}

	update := bson.M{
		"$set": bson.M{"payload": string(data), "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"version": int64(1)},
	}
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": string(dataset)},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert dataset %s: %w", dataset, err)
	}
	return nil
}

// Ping проверяет доступность primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close отключает клиента.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ domain.Store = (*Store)(nil)
var _ domain.Pinger = (*Store)(nil)
