package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/qrcard-services/internal/cardsvc/models"
	"github.com/avvvet/qrcard-services/internal/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore ensures the unique index on code, which is what makes Put an
// atomic insert-if-absent.
func NewMongoStore(ctx context.Context, database *mongo.Database, collection string) (*MongoStore, error) {
	if err := db.CreateUniqueIndexForCollection(ctx, database, collection, "code"); err != nil {
		return nil, err
	}
	return &MongoStore{coll: database.Collection(collection)}, nil
}

func (s *MongoStore) Exists(ctx context.Context, code string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"code": code}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count cards: %w", err)
	}
	return n > 0, nil
}

func (s *MongoStore) Get(ctx context.Context, code string) (*models.Card, error) {
	var card models.Card
	err := s.coll.FindOne(ctx, bson.M{"code": code}).Decode(&card)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get card by code: %w", err)
	}
	return &card, nil
}

func (s *MongoStore) Put(ctx context.Context, card models.Card) error {
	_, err := s.coll.InsertOne(ctx, card)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert card: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.coll.Database().Client().Disconnect(ctx)
}
