package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/publora/publora/internal/domain"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const integrationsCollection = "platform_integrations"

// IntegrationStore implements domain.IntegrationRepository on MongoDB.
type IntegrationStore struct {
	database *mongo.Database
}

func NewIntegrationStore(database *mongo.Database) *IntegrationStore {
	store := &IntegrationStore{
		database: database,
	}
	store.ensureIndexes()
	return store
}

func (s *IntegrationStore) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	collection := s.database.Collection(integrationsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "platform", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn().Err(err).Msg("Failed to create indexes for platform_integrations")
	}
}

func (s *IntegrationStore) collection() *mongo.Collection {
	return s.database.Collection(integrationsCollection)
}

// Create inserts the integration and revokes any previous active row for the
// same (user, platform) pair, so only one integration per pair is active.
func (s *IntegrationStore) Create(ctx context.Context, integration *domain.PlatformIntegration) error {
	if integration.ID == "" {
		integration.ID = xid.New().String()
	}

	now := time.Now().UTC()
	integration.CreatedAt = now
	integration.UpdatedAt = now
	integration.Status = domain.IntegrationStatusActive

	_, err := s.collection().UpdateMany(ctx,
		bson.M{
			"user_id":  integration.UserID,
			"platform": integration.Platform,
			"status":   domain.IntegrationStatusActive,
		},
		bson.M{"$set": bson.M{
			"status":     domain.IntegrationStatusRevoked,
			"updated_at": now,
		}},
	)
	if err != nil {
		return err
	}

	_, err = s.collection().InsertOne(ctx, integration)
	return err
}

func (s *IntegrationStore) GetActive(ctx context.Context, userID string, platform domain.PlatformType) (*domain.PlatformIntegration, error) {
	filter := bson.M{
		"user_id":  userID,
		"platform": platform,
		"status":   domain.IntegrationStatusActive,
	}

	var integration domain.PlatformIntegration
	err := s.collection().FindOne(ctx, filter).Decode(&integration)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrIntegrationNotFound
	}
	if err != nil {
		return nil, err
	}

	return &integration, nil
}

func (s *IntegrationStore) ListActive(ctx context.Context, userID string) ([]*domain.PlatformIntegration, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  domain.IntegrationStatusActive,
	}

	cursor, err := s.collection().Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var integrations []*domain.PlatformIntegration
	if err := cursor.All(ctx, &integrations); err != nil {
		return nil, err
	}

	return integrations, nil
}

func (s *IntegrationStore) ForEach(ctx context.Context, fn func(*domain.PlatformIntegration) error) error {
	cursor, err := s.collection().Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var integration domain.PlatformIntegration
		if err := cursor.Decode(&integration); err != nil {
			return err
		}

		if err := fn(&integration); err != nil {
			return err
		}
	}

	return cursor.Err()
}

func (s *IntegrationStore) UpdateCredentials(ctx context.Context, id string, credentials any, encrypted bool) error {
	return s.updateByID(ctx, id, bson.M{
		"credentials":           credentials,
		"credentials_encrypted": encrypted,
		"updated_at":            time.Now().UTC(),
	})
}

func (s *IntegrationStore) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error {
	return s.updateByID(ctx, id, bson.M{
		"metadata":   metadata,
		"updated_at": time.Now().UTC(),
	})
}

func (s *IntegrationStore) Revoke(ctx context.Context, id string) error {
	return s.updateByID(ctx, id, bson.M{
		"status":     domain.IntegrationStatusRevoked,
		"updated_at": time.Now().UTC(),
	})
}

func (s *IntegrationStore) Delete(ctx context.Context, id string) error {
	result, err := s.collection().DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return domain.ErrIntegrationNotFound
	}

	return nil
}

func (s *IntegrationStore) updateByID(ctx context.Context, id string, fields bson.M) error {
	result, err := s.collection().UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return domain.ErrIntegrationNotFound
	}

	return nil
}
