package repository

import (
	"context"
	"errors"
	"fmt"

	"metrix-portal/internal/database/mongo"
	"metrix-portal/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type IUserRepository interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

type UserRepository struct {
	db *mongodriver.Database
}

func NewUserRepository(db *mongodriver.Database) IUserRepository {
	return &UserRepository{
		db: db,
	}
}

// FindUser returns the user document or nil when none exists. The id is
// the normalized phone digit string, a natural key.
func (r *UserRepository) FindUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.Collection(mongo.Collections.Users).
		FindOne(ctx, bson.M{"_id": id}).
		Decode(&user)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", id, err)
	}
	return &user, nil
}

func (r *UserRepository) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := r.db.Collection(mongo.Collections.Users).ReplaceOne(
		ctx,
		bson.M{"_id": user.ID},
		user,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", user.ID, err)
	}
	return nil
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := r.db.Collection(mongo.Collections.Users).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}
