package services

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"metrix-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type fakeMeterRepo struct {
	meters []models.SavedMeter
	nextID int
}

func (f *fakeMeterRepo) FindMeter(ctx context.Context, userID, serial string) (*models.SavedMeter, error) {
	for _, m := range f.meters {
		if m.UserID == userID && m.Serial == serial {
			copied := m
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeMeterRepo) InsertMeter(ctx context.Context, meter *models.SavedMeter) (string, error) {
	for _, m := range f.meters {
		if m.UserID == meter.UserID && m.Serial == meter.Serial {
			return "", models.ErrDuplicateAttach
		}
	}
	f.nextID++
	meter.ID = fmt.Sprintf("meter-%d", f.nextID)
	f.meters = append(f.meters, *meter)
	return meter.ID, nil
}

func (f *fakeMeterRepo) ListMeters(ctx context.Context, userID string) ([]models.SavedMeter, error) {
	var out []models.SavedMeter
	for _, m := range f.meters {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMeterRepo) ListAllMeters(ctx context.Context) ([]models.SavedMeter, error) {
	return append([]models.SavedMeter(nil), f.meters...), nil
}

func (f *fakeMeterRepo) DeleteMeter(ctx context.Context, id string) error {
	for i, m := range f.meters {
		if m.ID == id {
			f.meters = append(f.meters[:i], f.meters[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func newTestMeterService() (*MeterService, *fakeMeterRepo) {
	repo := &fakeMeterRepo{}
	clock := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	svc := &MeterService{
		meterRepo: repo,
		now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
	}
	return svc, repo
}

func resolvedMeter(serial string) *models.MeterData {
	return &models.MeterData{
		Serial:     serial,
		Account:    "ACC-" + serial,
		Address:    "Abay, 12",
		Reading:    120.5,
		LastUpdate: "2026-01-10T10:00:00Z",
		Status:     models.MeterOnline,
	}
}

// ============================================================================
// TESTS
// ============================================================================

func TestAttach_SnapshotsResolvedState(t *testing.T) {
	svc, _ := newTestMeterService()

	saved, err := svc.Attach(context.Background(), "user-1", resolvedMeter("SN-1"))

	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "SN-1", saved.Serial)
	assert.Equal(t, 120.5, saved.LastReading)
	assert.Equal(t, models.MeterOnline, saved.Status)
}

func TestAttach_DuplicateSerialRejected(t *testing.T) {
	svc, _ := newTestMeterService()

	_, err := svc.Attach(context.Background(), "user-1", resolvedMeter("SN-1"))
	require.NoError(t, err)

	_, err = svc.Attach(context.Background(), "user-1", resolvedMeter("SN-1"))
	assert.ErrorIs(t, err, models.ErrDuplicateAttach)
}

func TestAttach_SameSerialDifferentUsers(t *testing.T) {
	svc, _ := newTestMeterService()

	_, err := svc.Attach(context.Background(), "user-1", resolvedMeter("SN-1"))
	require.NoError(t, err)

	_, err = svc.Attach(context.Background(), "user-2", resolvedMeter("SN-1"))
	assert.NoError(t, err, "uniqueness is per user, not global")
}

func TestDetach_KeepsOrderingOfRemaining(t *testing.T) {
	svc, _ := newTestMeterService()

	first, err := svc.Attach(context.Background(), "user-1", resolvedMeter("SN-1"))
	require.NoError(t, err)
	second, err := svc.Attach(context.Background(), "user-1", resolvedMeter("SN-2"))
	require.NoError(t, err)
	third, err := svc.Attach(context.Background(), "user-1", resolvedMeter("SN-3"))
	require.NoError(t, err)

	require.NoError(t, svc.Detach(context.Background(), "user-1", second.ID))

	meters, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, meters, 2)
	assert.Equal(t, third.ID, meters[0].ID, "newest first")
	assert.Equal(t, first.ID, meters[1].ID)
}

func TestDetach_ForeignMeterRejected(t *testing.T) {
	svc, repo := newTestMeterService()

	saved, err := svc.Attach(context.Background(), "user-1", resolvedMeter("SN-1"))
	require.NoError(t, err)

	err = svc.Detach(context.Background(), "user-2", saved.ID)

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Len(t, repo.meters, 1, "nothing was deleted")
}
