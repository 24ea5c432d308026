package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"metrix-portal/internal/database/minio"
	"metrix-portal/internal/event"
	"metrix-portal/internal/models"
	"metrix-portal/internal/repository"

	"github.com/google/uuid"
)

const (
	photoUploadAttempts = 3
	photoUploadTimeout  = 90 * time.Second
	photoUploadPause    = 1 * time.Second
)

// PhotoUploader is the slice of the blob store the pipeline needs.
type PhotoUploader interface {
	UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error
	ObjectURL(bucketName, objectName string) string
	GetPresignedURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error)
}

// EventPublisher is the slice of the notification publisher the pipeline
// needs. Notifications are best-effort and never fail a submission.
type EventPublisher interface {
	PublishEvent(ctx context.Context, e event.RequestEvent) error
}

// PhotoAttachment carries the optional photo of a submission.
type PhotoAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SubmitInput is a service-request intent.
type SubmitInput struct {
	UserID      string
	UserPhone   string
	Type        models.RequestType
	Details     string
	MeterSerial string
	Photo       *PhotoAttachment
	Reading     float64
}

type IRequestService interface {
	Submit(ctx context.Context, in SubmitInput) (*models.ServiceRequest, error)
	ListForUser(ctx context.Context, userID string) ([]models.ServiceRequest, error)
	UpdateStatus(ctx context.Context, requestID string, next models.RequestStatus) (*models.ServiceRequest, error)
	PhotoLink(ctx context.Context, userID, requestID string) (string, error)
}

// RequestService is the submission pipeline: optional photo upload with a
// bounded retry budget, then the request record, then a best-effort
// notification. Upload fully succeeds or the record is never written; a
// request referencing a photo that never uploaded must not exist.
type RequestService struct {
	requestRepo repository.IRequestRepository
	uploader    PhotoUploader
	publisher   EventPublisher
	now         func() time.Time
	pause       func(time.Duration)
}

func NewRequestService(requestRepo repository.IRequestRepository, uploader PhotoUploader, publisher EventPublisher) IRequestService {
	return &RequestService{
		requestRepo: requestRepo,
		uploader:    uploader,
		publisher:   publisher,
		now:         time.Now,
		pause:       time.Sleep,
	}
}

func (s *RequestService) Submit(ctx context.Context, in SubmitInput) (*models.ServiceRequest, error) {
	if !in.Type.IsValid() {
		return nil, fmt.Errorf("unknown request type %q", in.Type)
	}

	photoURL, photoObject := "", ""
	if in.Photo != nil {
		url, object, err := s.uploadPhoto(ctx, in)
		if err != nil {
			return nil, err
		}
		photoURL, photoObject = url, object
	}

	request := &models.ServiceRequest{
		UserID:      in.UserID,
		UserPhone:   in.UserPhone,
		Type:        in.Type,
		Status:      models.RequestNew,
		Details:     in.Details,
		CreatedAt:   s.now(),
		MeterSerial: in.MeterSerial,
		PhotoURL:    photoURL,
		PhotoObject: photoObject,
		Reading:     in.Reading,
	}

	id, err := s.requestRepo.InsertRequest(ctx, request)
	if err != nil {
		return nil, err
	}
	request.ID = id

	s.notify(event.RequestCreated, request, nil)

	return request, nil
}

// uploadPhoto tries the blob store up to photoUploadAttempts times, each
// attempt under its own timeout, with a fixed pause between attempts.
// Exhaustion is ErrUploadFailed and the caller writes nothing.
func (s *RequestService) uploadPhoto(ctx context.Context, in SubmitInput) (string, string, error) {
	objectName := fmt.Sprintf("%s/%s/%s/%d_%s",
		in.Type, in.UserID, in.MeterSerial, s.now().Unix(), in.Photo.Filename)

	var lastErr error
	for attempt := 1; attempt <= photoUploadAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, photoUploadTimeout)
		err := s.uploader.UploadBytes(attemptCtx, minio.Storage.RequestPhotos, objectName, in.Photo.Data, in.Photo.ContentType)
		cancel()

		if err == nil {
			return s.uploader.ObjectURL(minio.Storage.RequestPhotos, objectName), objectName, nil
		}

		lastErr = err
		log.Printf("photo upload attempt %d/%d failed: %v", attempt, photoUploadAttempts, err)
		if attempt < photoUploadAttempts {
			s.pause(photoUploadPause)
		}
	}

	return "", "", fmt.Errorf("%w: %v", models.ErrUploadFailed, lastErr)
}

func (s *RequestService) ListForUser(ctx context.Context, userID string) ([]models.ServiceRequest, error) {
	return s.requestRepo.ListRequests(ctx, userID)
}

// photoLinkExpiry bounds how long a handed-out photo link stays valid.
const photoLinkExpiry = 15 * time.Minute

// PhotoLink returns a short-lived presigned URL for the photo attached to
// one of the caller's requests. Pass an empty userID to skip the ownership
// check (operator surface).
func (s *RequestService) PhotoLink(ctx context.Context, userID, requestID string) (string, error) {
	request, err := s.requestRepo.GetRequest(ctx, requestID)
	if err != nil {
		return "", err
	}
	if userID != "" && request.UserID != userID {
		return "", models.ErrRequestNotFound
	}
	if request.PhotoObject == "" {
		return "", models.ErrNotFound
	}
	return s.uploader.GetPresignedURL(ctx, minio.Storage.RequestPhotos, request.PhotoObject, photoLinkExpiry)
}

// UpdateStatus applies one edge of the request status state machine.
// Illegal edges are rejected here, centrally, regardless of what the
// calling surface offers.
func (s *RequestService) UpdateStatus(ctx context.Context, requestID string, next models.RequestStatus) (*models.ServiceRequest, error) {
	if !next.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidTransition, next)
	}

	request, err := s.requestRepo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if !request.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, request.Status, next)
	}

	if err := s.requestRepo.UpdateRequestStatus(ctx, requestID, next); err != nil {
		return nil, err
	}
	request.Status = next

	s.notify(event.RequestStatusChanged, request, map[string]any{"status": string(next)})

	return request, nil
}

// notify publishes the administrative event. Failures are logged and
// swallowed: notification must never block or fail the primary operation.
func (s *RequestService) notify(eventType event.RequestEventType, request *models.ServiceRequest, additional map[string]any) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e := event.RequestEvent{
		ID:          uuid.NewString(),
		EventType:   eventType,
		UserID:      request.UserID,
		UserPhone:   request.UserPhone,
		RequestID:   request.ID,
		RequestType: string(request.Type),
		Additional:  additional,
	}
	if err := s.publisher.PublishEvent(ctx, e); err != nil {
		log.Printf("request event publish failed (ignored): %v", err)
	}
}
