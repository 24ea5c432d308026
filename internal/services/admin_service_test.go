package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"metrix-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestAdminListUsers_GroupsMetersPerUser(t *testing.T) {
	userRepo := newFakeUserRepo()
	meterRepo := &fakeMeterRepo{}
	svc := NewAdminService(userRepo, meterRepo, newFakeRequestRepo())

	require.NoError(t, userRepo.UpsertUser(context.Background(), &models.User{ID: "77071234567", Phone: "87071234567"}))
	require.NoError(t, userRepo.UpsertUser(context.Background(), &models.User{ID: "77071234568", Phone: "87071234568"}))

	_, err := meterRepo.InsertMeter(context.Background(), &models.SavedMeter{UserID: "77071234567", Serial: "SN-1"})
	require.NoError(t, err)
	_, err = meterRepo.InsertMeter(context.Background(), &models.SavedMeter{UserID: "77071234567", Serial: "SN-2"})
	require.NoError(t, err)

	stats, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)

	counts := make(map[string]int)
	for _, s := range stats {
		counts[s.ID] = s.MeterCount
	}
	assert.Equal(t, 2, counts["77071234567"])
	assert.Equal(t, 0, counts["77071234568"])
}

func TestExportRequests_WorkbookRoundTrip(t *testing.T) {
	requestRepo := newFakeRequestRepo()
	svc := NewAdminService(newFakeUserRepo(), &fakeMeterRepo{}, requestRepo)

	_, err := requestRepo.InsertRequest(context.Background(), &models.ServiceRequest{
		UserID:      "77071234567",
		UserPhone:   "87071234567",
		Type:        models.RequestRepair,
		Status:      models.RequestNew,
		Details:     "leaking valve",
		MeterSerial: "SN-1",
		CreatedAt:   time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	data, err := svc.ExportRequests(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Requests")
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus one request")
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "repair", rows[1][3])
	assert.Equal(t, "SN-1", rows[1][5])
}

func TestExportRequests_EmptyStoreStillProducesWorkbook(t *testing.T) {
	svc := NewAdminService(newFakeUserRepo(), &fakeMeterRepo{}, newFakeRequestRepo())

	data, err := svc.ExportRequests(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Requests")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
