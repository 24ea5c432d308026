package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"metrix-portal/internal/event"
	"metrix-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type fakeUploader struct {
	failures int
	calls    int
	objects  []string
}

func (f *fakeUploader) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection reset")
	}
	f.objects = append(f.objects, objectName)
	return nil
}

func (f *fakeUploader) ObjectURL(bucketName, objectName string) string {
	return fmt.Sprintf("http://blob.local/%s/%s", bucketName, objectName)
}

func (f *fakeUploader) GetPresignedURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("http://blob.local/%s/%s?signed=1", bucketName, objectName), nil
}

type fakeRequestRepo struct {
	requests map[string]*models.ServiceRequest
	inserted []*models.ServiceRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]*models.ServiceRequest)}
}

func (f *fakeRequestRepo) InsertRequest(ctx context.Context, req *models.ServiceRequest) (string, error) {
	if req.ID == "" {
		req.ID = fmt.Sprintf("req-%d", len(f.inserted)+1)
	}
	stored := *req
	f.requests[req.ID] = &stored
	f.inserted = append(f.inserted, &stored)
	return req.ID, nil
}

func (f *fakeRequestRepo) GetRequest(ctx context.Context, id string) (*models.ServiceRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, models.ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (f *fakeRequestRepo) ListRequests(ctx context.Context, userID string) ([]models.ServiceRequest, error) {
	var out []models.ServiceRequest
	for _, req := range f.requests {
		if userID == "" || req.UserID == userID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) UpdateRequestStatus(ctx context.Context, id string, status models.RequestStatus) error {
	req, ok := f.requests[id]
	if !ok {
		return models.ErrRequestNotFound
	}
	req.Status = status
	return nil
}

type fakePublisher struct {
	events []event.RequestEvent
	err    error
}

func (f *fakePublisher) PublishEvent(ctx context.Context, e event.RequestEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func newTestRequestService(repo *fakeRequestRepo, uploader *fakeUploader, publisher *fakePublisher) (*RequestService, *[]time.Duration) {
	pauses := &[]time.Duration{}
	svc := &RequestService{
		requestRepo: repo,
		uploader:    uploader,
		publisher:   publisher,
		now:         func() time.Time { return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC) },
		pause:       func(d time.Duration) { *pauses = append(*pauses, d) },
	}
	return svc, pauses
}

func photoInput() SubmitInput {
	return SubmitInput{
		UserID:      "77071234567",
		UserPhone:   "+7 707 123 45 67",
		Type:        models.RequestReadingSubmit,
		Details:     "monthly reading",
		MeterSerial: "SN-1",
		Reading:     251.2,
		Photo: &PhotoAttachment{
			Filename:    "meter.jpg",
			ContentType: "image/jpeg",
			Data:        []byte("jpeg-bytes"),
		},
	}
}

// ============================================================================
// TEST SUITE 1: SUBMISSION AND PHOTO RETRY
// ============================================================================

func TestSubmit_NoPhoto(t *testing.T) {
	repo := newFakeRequestRepo()
	uploader := &fakeUploader{}
	publisher := &fakePublisher{}
	svc, _ := newTestRequestService(repo, uploader, publisher)

	in := photoInput()
	in.Photo = nil

	request, err := svc.Submit(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, models.RequestNew, request.Status)
	assert.Empty(t, request.PhotoURL)
	assert.Zero(t, uploader.calls)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, event.RequestCreated, publisher.events[0].EventType)
}

func TestSubmit_UnknownTypeRejected(t *testing.T) {
	repo := newFakeRequestRepo()
	svc, _ := newTestRequestService(repo, &fakeUploader{}, &fakePublisher{})

	in := photoInput()
	in.Type = "plumbing"

	_, err := svc.Submit(context.Background(), in)

	assert.Error(t, err)
	assert.Empty(t, repo.inserted)
}

func TestSubmit_PhotoSucceedsOnThirdAttempt(t *testing.T) {
	repo := newFakeRequestRepo()
	uploader := &fakeUploader{failures: 2}
	svc, pauses := newTestRequestService(repo, uploader, &fakePublisher{})

	request, err := svc.Submit(context.Background(), photoInput())

	require.NoError(t, err)
	require.Len(t, repo.inserted, 1, "exactly one record for a retried upload")
	assert.Equal(t, 3, uploader.calls)
	assert.Equal(t, []time.Duration{photoUploadPause, photoUploadPause}, *pauses)
	require.Len(t, uploader.objects, 1)
	assert.Contains(t, request.PhotoURL, uploader.objects[0])
}

func TestSubmit_PhotoExhaustionWritesNothing(t *testing.T) {
	repo := newFakeRequestRepo()
	uploader := &fakeUploader{failures: photoUploadAttempts}
	publisher := &fakePublisher{}
	svc, pauses := newTestRequestService(repo, uploader, publisher)

	request, err := svc.Submit(context.Background(), photoInput())

	assert.ErrorIs(t, err, models.ErrUploadFailed)
	assert.Nil(t, request)
	assert.Empty(t, repo.inserted, "no record may reference a photo that never uploaded")
	assert.Empty(t, publisher.events)
	assert.Equal(t, photoUploadAttempts, uploader.calls)
	assert.Len(t, *pauses, photoUploadAttempts-1, "no pause after the final attempt")
}

func TestSubmit_PublisherFailureDoesNotFailSubmission(t *testing.T) {
	repo := newFakeRequestRepo()
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc, _ := newTestRequestService(repo, &fakeUploader{}, publisher)

	in := photoInput()
	in.Photo = nil

	request, err := svc.Submit(context.Background(), in)

	require.NoError(t, err)
	assert.NotNil(t, request)
	require.Len(t, repo.inserted, 1)
}

func TestSubmit_NilPublisher(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := &RequestService{
		requestRepo: repo,
		uploader:    &fakeUploader{},
		now:         time.Now,
		pause:       func(time.Duration) {},
	}

	in := photoInput()
	in.Photo = nil

	_, err := svc.Submit(context.Background(), in)

	require.NoError(t, err)
}

// ============================================================================
// TEST SUITE 2: PHOTO LINKS
// ============================================================================

func TestPhotoLink_OwnRequest(t *testing.T) {
	repo := newFakeRequestRepo()
	svc, _ := newTestRequestService(repo, &fakeUploader{}, &fakePublisher{})

	created, err := svc.Submit(context.Background(), photoInput())
	require.NoError(t, err)

	link, err := svc.PhotoLink(context.Background(), created.UserID, created.ID)

	require.NoError(t, err)
	assert.Contains(t, link, "signed=1")
}

func TestPhotoLink_ForeignRequestHidden(t *testing.T) {
	repo := newFakeRequestRepo()
	svc, _ := newTestRequestService(repo, &fakeUploader{}, &fakePublisher{})

	created, err := svc.Submit(context.Background(), photoInput())
	require.NoError(t, err)

	_, err = svc.PhotoLink(context.Background(), "someone-else", created.ID)

	assert.ErrorIs(t, err, models.ErrRequestNotFound, "foreign requests look absent, not forbidden")
}

func TestPhotoLink_NoPhoto(t *testing.T) {
	repo := newFakeRequestRepo()
	svc, _ := newTestRequestService(repo, &fakeUploader{}, &fakePublisher{})

	in := photoInput()
	in.Photo = nil
	created, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.PhotoLink(context.Background(), created.UserID, created.ID)

	assert.ErrorIs(t, err, models.ErrNotFound)
}

// ============================================================================
// TEST SUITE 3: STATUS STATE MACHINE
// ============================================================================

func TestUpdateStatus_HappyPath(t *testing.T) {
	repo := newFakeRequestRepo()
	publisher := &fakePublisher{}
	svc, _ := newTestRequestService(repo, &fakeUploader{}, publisher)

	in := photoInput()
	in.Photo = nil
	created, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	processing, err := svc.UpdateStatus(context.Background(), created.ID, models.RequestProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.RequestProcessing, processing.Status)

	completed, err := svc.UpdateStatus(context.Background(), created.ID, models.RequestCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.RequestCompleted, completed.Status)

	// created + two status changes
	assert.Len(t, publisher.events, 3)
	assert.Equal(t, event.RequestStatusChanged, publisher.events[2].EventType)
}

func TestUpdateStatus_TerminalStateRejectsReopening(t *testing.T) {
	repo := newFakeRequestRepo()
	svc, _ := newTestRequestService(repo, &fakeUploader{}, &fakePublisher{})

	in := photoInput()
	in.Photo = nil
	created, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, models.RequestProcessing)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), created.ID, models.RequestCompleted)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, models.RequestProcessing)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	stored, err := repo.GetRequest(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestCompleted, stored.Status, "terminal state stays put")
}

func TestUpdateStatus_SkippingProcessingRejected(t *testing.T) {
	repo := newFakeRequestRepo()
	svc, _ := newTestRequestService(repo, &fakeUploader{}, &fakePublisher{})

	in := photoInput()
	in.Photo = nil
	created, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, models.RequestCompleted)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestUpdateStatus_CancelFromNew(t *testing.T) {
	repo := newFakeRequestRepo()
	svc, _ := newTestRequestService(repo, &fakeUploader{}, &fakePublisher{})

	in := photoInput()
	in.Photo = nil
	created, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	cancelled, err := svc.UpdateStatus(context.Background(), created.ID, models.RequestCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.RequestCancelled, cancelled.Status)
}

func TestUpdateStatus_UnknownRequest(t *testing.T) {
	svc, _ := newTestRequestService(newFakeRequestRepo(), &fakeUploader{}, &fakePublisher{})

	_, err := svc.UpdateStatus(context.Background(), "missing", models.RequestProcessing)

	assert.ErrorIs(t, err, models.ErrRequestNotFound)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	svc, _ := newTestRequestService(newFakeRequestRepo(), &fakeUploader{}, &fakePublisher{})

	_, err := svc.UpdateStatus(context.Background(), "req-1", models.RequestStatus("archived"))

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}
