package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "carts"

type mongoRecord struct {
	Key       string       `bson:"_id"`
	Document  cartDocument `bson:"document"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongo(db *mongo.Database) port.CartRepository {
	return &mongoRepository{collection: db.Collection(mongoCollection)}
}

func (r *mongoRepository) Load(ctx context.Context, key string) (domain.Cart, error) {
	if key == "" {
		return domain.Cart{}, fmt.Errorf("key is empty")
	}

	var rec mongoRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("collection.FindOne: %w", err)
	}

	cart, err := mapDocumentToCart(rec.Document)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("mapDocumentToCart: %w", err)
	}
	return cart, nil
}

func (r *mongoRepository) Save(ctx context.Context, key string, cart domain.Cart) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	rec := mongoRecord{
		Key:       key,
		Document:  mapCartToDocument(cart),
		UpdatedAt: time.Now().UTC(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": key}, rec, opts); err != nil {
		return fmt.Errorf("collection.ReplaceOne: %w", err)
	}

	return nil
}

// CreateMongoIndexes expires carts that were not touched for ttl.
func CreateMongoIndexes(ctx context.Context, db *mongo.Database, ttl time.Duration) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	}

	if _, err := db.Collection(mongoCollection).Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("Indexes.CreateOne: %w", err)
	}
	return nil
}
