package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"metrix-portal/internal/database/mongo"
	"metrix-portal/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

type IMeterRepository interface {
	FindMeter(ctx context.Context, userID, serial string) (*models.SavedMeter, error)
	InsertMeter(ctx context.Context, meter *models.SavedMeter) (string, error)
	ListMeters(ctx context.Context, userID string) ([]models.SavedMeter, error)
	ListAllMeters(ctx context.Context) ([]models.SavedMeter, error)
	DeleteMeter(ctx context.Context, id string) error
}

type MeterRepository struct {
	db *mongodriver.Database
}

func NewMeterRepository(db *mongodriver.Database) IMeterRepository {
	return &MeterRepository{
		db: db,
	}
}

func (r *MeterRepository) FindMeter(ctx context.Context, userID, serial string) (*models.SavedMeter, error) {
	var meter models.SavedMeter
	err := r.db.Collection(mongo.Collections.Meters).
		FindOne(ctx, bson.M{"userId": userID, "serial": serial}).
		Decode(&meter)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find meter %s for user %s: %w", serial, userID, err)
	}
	return &meter, nil
}

// InsertMeter writes a cabinet attachment and returns the generated id.
// Uniqueness of (userId, serial) is checked by the service before calling
// this; the collection's unique index is the backstop for the race between
// two concurrent sessions attaching the same serial.
func (r *MeterRepository) InsertMeter(ctx context.Context, meter *models.SavedMeter) (string, error) {
	if meter.ID == "" {
		meter.ID = uuid.NewString()
	}
	_, err := r.db.Collection(mongo.Collections.Meters).InsertOne(ctx, meter)
	if mongodriver.IsDuplicateKeyError(err) {
		return "", models.ErrDuplicateAttach
	}
	if err != nil {
		return "", fmt.Errorf("failed to insert meter %s: %w", meter.Serial, err)
	}
	return meter.ID, nil
}

// ListMeters returns a user's cabinet sorted by creation time descending.
// The sort happens client-side so the query stays on the single-field
// userId index and no composite index is required.
func (r *MeterRepository) ListMeters(ctx context.Context, userID string) ([]models.SavedMeter, error) {
	cursor, err := r.db.Collection(mongo.Collections.Meters).Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list meters for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var meters []models.SavedMeter
	if err := cursor.All(ctx, &meters); err != nil {
		return nil, fmt.Errorf("failed to decode meters: %w", err)
	}

	sort.Slice(meters, func(i, j int) bool {
		return meters[i].CreatedAt.After(meters[j].CreatedAt)
	})
	return meters, nil
}

func (r *MeterRepository) ListAllMeters(ctx context.Context) ([]models.SavedMeter, error) {
	cursor, err := r.db.Collection(mongo.Collections.Meters).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list all meters: %w", err)
	}
	defer cursor.Close(ctx)

	var meters []models.SavedMeter
	if err := cursor.All(ctx, &meters); err != nil {
		return nil, fmt.Errorf("failed to decode meters: %w", err)
	}
	return meters, nil
}

func (r *MeterRepository) DeleteMeter(ctx context.Context, id string) error {
	_, err := r.db.Collection(mongo.Collections.Meters).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete meter %s: %w", id, err)
	}
	return nil
}
