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

type IRequestRepository interface {
	InsertRequest(ctx context.Context, req *models.ServiceRequest) (string, error)
	GetRequest(ctx context.Context, id string) (*models.ServiceRequest, error)
	ListRequests(ctx context.Context, userID string) ([]models.ServiceRequest, error)
	UpdateRequestStatus(ctx context.Context, id string, status models.RequestStatus) error
}

type RequestRepository struct {
	db *mongodriver.Database
}

func NewRequestRepository(db *mongodriver.Database) IRequestRepository {
	return &RequestRepository{
		db: db,
	}
}

func (r *RequestRepository) InsertRequest(ctx context.Context, req *models.ServiceRequest) (string, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	_, err := r.db.Collection(mongo.Collections.ServiceRequests).InsertOne(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to insert service request: %w", err)
	}
	return req.ID, nil
}

func (r *RequestRepository) GetRequest(ctx context.Context, id string) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	err := r.db.Collection(mongo.Collections.ServiceRequests).
		FindOne(ctx, bson.M{"_id": id}).
		Decode(&req)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return nil, models.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request %s: %w", id, err)
	}
	return &req, nil
}

// ListRequests returns requests newest first. An empty userID lists every
// request (the admin view).
func (r *RequestRepository) ListRequests(ctx context.Context, userID string) ([]models.ServiceRequest, error) {
	filter := bson.M{}
	if userID != "" {
		filter["userId"] = userID
	}

	cursor, err := r.db.Collection(mongo.Collections.ServiceRequests).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []models.ServiceRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

func (r *RequestRepository) UpdateRequestStatus(ctx context.Context, id string, status models.RequestStatus) error {
	res, err := r.db.Collection(mongo.Collections.ServiceRequests).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update request %s status: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrRequestNotFound
	}
	return nil
}
