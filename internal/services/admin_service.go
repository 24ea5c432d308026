package services

import (
	"bytes"
	"context"
	"fmt"

	"metrix-portal/internal/models"
	"metrix-portal/internal/repository"

	"github.com/xuri/excelize/v2"
)

type IAdminService interface {
	ListUsers(ctx context.Context) ([]models.UserStat, error)
	ListRequests(ctx context.Context) ([]models.ServiceRequest, error)
	ExportRequests(ctx context.Context) ([]byte, error)
}

// AdminService backs the operator screen: user and request listings plus
// a spreadsheet export.
type AdminService struct {
	userRepo    repository.IUserRepository
	meterRepo   repository.IMeterRepository
	requestRepo repository.IRequestRepository
}

func NewAdminService(userRepo repository.IUserRepository, meterRepo repository.IMeterRepository, requestRepo repository.IRequestRepository) IAdminService {
	return &AdminService{
		userRepo:    userRepo,
		meterRepo:   meterRepo,
		requestRepo: requestRepo,
	}
}

// ListUsers returns every user with their attached meters. Meters are
// grouped client-side from a single collection scan instead of one query
// per user.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.UserStat, error) {
	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	meters, err := s.meterRepo.ListAllMeters(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string][]models.SavedMeter)
	for _, m := range meters {
		byUser[m.UserID] = append(byUser[m.UserID], m)
	}

	stats := make([]models.UserStat, 0, len(users))
	for _, u := range users {
		userMeters := byUser[u.ID]
		stats = append(stats, models.UserStat{
			User:       u,
			MeterCount: len(userMeters),
			Meters:     userMeters,
		})
	}
	return stats, nil
}

func (s *AdminService) ListRequests(ctx context.Context) ([]models.ServiceRequest, error) {
	return s.requestRepo.ListRequests(ctx, "")
}

// ExportRequests renders every service request into an XLSX workbook.
func (s *AdminService) ExportRequests(ctx context.Context) ([]byte, error) {
	requests, err := s.requestRepo.ListRequests(ctx, "")
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Requests"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Created", "Phone", "Type", "Status", "Meter", "Reading", "Details", "Photo"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, req := range requests {
		values := []any{
			req.ID,
			req.CreatedAt.Format("2006-01-02 15:04"),
			req.UserPhone,
			string(req.Type),
			string(req.Status),
			req.MeterSerial,
			req.Reading,
			req.Details,
			req.PhotoURL,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
