package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"disha/db"
	"disha/models"
)

// ReportStoreService archives generated reports. A nil repository turns
// every write into a no-op so the API runs without a database.
type ReportStoreService struct {
	repo db.ReportRepository
}

func NewReportStoreService(repo db.ReportRepository) *ReportStoreService {
	return &ReportStoreService{repo: repo}
}

func (s *ReportStoreService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Close releases the underlying repository when it holds a connection.
func (s *ReportStoreService) Close() error {
	if !s.Enabled() {
		return nil
	}
	if c, ok := s.repo.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *ReportStoreService) SaveReport(ctx context.Context, report *models.Report) error {
	if !s.Enabled() {
		return nil
	}

	if err := s.validateReport(report); err != nil {
		log.Printf("[ERROR] Report validation failed: %v", err)
		return err
	}

	log.Printf("[INFO] Starting report archive for student %s", report.StudentID)

	if err := s.repo.CreateReport(ctx, report); err != nil {
		log.Printf("[ERROR] Failed to archive report for student %s: %v", report.StudentID, err)
		return fmt.Errorf("failed to archive report: %w", err)
	}

	log.Printf("[INFO] Successfully archived report with ID %d", report.ID)
	return nil
}

func (s *ReportStoreService) GetReportsByStudent(ctx context.Context, studentID string) ([]*models.Report, error) {
	if !s.Enabled() {
		return []*models.Report{}, nil
	}

	log.Printf("[INFO] Starting get reports for student %s", studentID)

	reports, err := s.repo.GetReportsByStudent(ctx, studentID)
	if err != nil {
		log.Printf("[ERROR] Failed to get reports for student %s: %v", studentID, err)
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}

	log.Printf("[INFO] Successfully retrieved %d reports for student %s", len(reports), studentID)
	return reports, nil
}

func (s *ReportStoreService) GetReportByID(ctx context.Context, id int) (*models.Report, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("report with id %d: %w", id, db.ErrReportNotFound)
	}

	if id <= 0 {
		log.Printf("[ERROR] Invalid report ID provided: %d", id)
		return nil, fmt.Errorf("invalid report ID: %d", id)
	}

	return s.repo.GetReportByID(ctx, id)
}

func (s *ReportStoreService) DeleteReport(ctx context.Context, id int) error {
	if !s.Enabled() {
		return fmt.Errorf("report with id %d: %w", id, db.ErrReportNotFound)
	}

	log.Printf("[INFO] Starting delete report with ID %d", id)

	if id <= 0 {
		log.Printf("[ERROR] Invalid report ID provided for deletion: %d", id)
		return fmt.Errorf("invalid report ID: %d", id)
	}

	if err := s.repo.DeleteReport(ctx, id); err != nil {
		log.Printf("[ERROR] Failed to delete report ID %d: %v", id, err)
		return err
	}

	log.Printf("[INFO] Successfully deleted report with ID %d", id)
	return nil
}

func (s *ReportStoreService) validateReport(report *models.Report) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if strings.TrimSpace(report.StudentID) == "" {
		return fmt.Errorf("student ID is required")
	}

	if strings.TrimSpace(report.Content) == "" {
		return fmt.Errorf("report content cannot be empty")
	}

	return nil
}
