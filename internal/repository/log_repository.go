package repository

import (
	"context"
	"fmt"

	"metrix-portal/internal/database/mongo"
	"metrix-portal/internal/models"

	"github.com/google/uuid"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

type ILogRepository interface {
	InsertSearchLog(ctx context.Context, entry *models.SearchLog) error
}

type LogRepository struct {
	db *mongodriver.Database
}

func NewLogRepository(db *mongodriver.Database) ILogRepository {
	return &LogRepository{
		db: db,
	}
}

func (r *LogRepository) InsertSearchLog(ctx context.Context, entry *models.SearchLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := r.db.Collection(mongo.Collections.Logs).InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to insert search log: %w", err)
	}
	return nil
}
