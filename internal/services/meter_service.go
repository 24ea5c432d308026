package services

import (
	"context"
	"time"

	"metrix-portal/internal/models"
	"metrix-portal/internal/repository"
)

type IMeterService interface {
	Attach(ctx context.Context, userID string, meter *models.MeterData) (*models.SavedMeter, error)
	List(ctx context.Context, userID string) ([]models.SavedMeter, error)
	Detach(ctx context.Context, userID, meterID string) error
}

// MeterService manages the cabinet: which meters a user follows.
type MeterService struct {
	meterRepo repository.IMeterRepository
	now       func() time.Time
}

func NewMeterService(meterRepo repository.IMeterRepository) IMeterService {
	return &MeterService{
		meterRepo: meterRepo,
		now:       time.Now,
	}
}

// Attach adds a resolved meter to the user's cabinet. Attach is not an
// upsert: a serial already present for this user is a user-facing error.
// The read-before-write check here races across concurrent sessions; the
// store's unique index turns the losing writer into the same error.
func (s *MeterService) Attach(ctx context.Context, userID string, meter *models.MeterData) (*models.SavedMeter, error) {
	existing, err := s.meterRepo.FindMeter(ctx, userID, meter.Serial)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrDuplicateAttach
	}

	saved := &models.SavedMeter{
		UserID:    userID,
		Serial:    meter.Serial,
		Account:   meter.Account,
		Address:   meter.Address,
		CreatedAt: s.now(),

		LastReading: meter.Reading,
		LastUpdate:  meter.LastUpdate,
		Status:      meter.Status,
	}

	id, err := s.meterRepo.InsertMeter(ctx, saved)
	if err != nil {
		return nil, err
	}
	saved.ID = id
	return saved, nil
}

func (s *MeterService) List(ctx context.Context, userID string) ([]models.SavedMeter, error) {
	return s.meterRepo.ListMeters(ctx, userID)
}

// Detach removes a cabinet entry after checking it belongs to the caller.
func (s *MeterService) Detach(ctx context.Context, userID, meterID string) error {
	meters, err := s.meterRepo.ListMeters(ctx, userID)
	if err != nil {
		return err
	}
	for _, m := range meters {
		if m.ID == meterID {
			return s.meterRepo.DeleteMeter(ctx, meterID)
		}
	}
	return models.ErrNotFound
}
