package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"disha/models"

	_ "github.com/lib/pq"
)

var ErrReportNotFound = errors.New("report not found")

type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
	GetReportByID(ctx context.Context, id int) (*models.Report, error)
	GetReportsByStudent(ctx context.Context, studentID string) ([]*models.Report, error)
	DeleteReport(ctx context.Context, id int) error
}

type PostgresReportRepository struct {
	db *sql.DB
}

func NewPostgresReportRepository(databaseURL string) (*PostgresReportRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresReportRepository{db: db}, nil
}

func (r *PostgresReportRepository) CreateReport(ctx context.Context, report *models.Report) error {
	profileJSON, err := json.Marshal(report.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	query := `
		INSERT INTO disha.career_reports (student_id, student_name, profile, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	row := r.db.QueryRowContext(ctx, query, report.StudentID, report.StudentName, profileJSON, report.Content)
	if err := row.Scan(&report.ID, &report.CreatedAt); err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

func (r *PostgresReportRepository) GetReportByID(ctx context.Context, id int) (*models.Report, error) {
	query := `
		SELECT id, student_id, student_name, profile, content, created_at
		FROM disha.career_reports
		WHERE id = $1`

	report, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report with id %d: %w", id, ErrReportNotFound)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return report, nil
}

func (r *PostgresReportRepository) GetReportsByStudent(ctx context.Context, studentID string) ([]*models.Report, error) {
	query := `
		SELECT id, student_id, student_name, profile, content, created_at
		FROM disha.career_reports
		WHERE student_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*models.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over reports: %w", err)
	}

	return reports, nil
}

func (r *PostgresReportRepository) DeleteReport(ctx context.Context, id int) error {
	query := "DELETE FROM disha.career_reports WHERE id = $1"

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("report with id %d: %w", id, ErrReportNotFound)
	}

	return nil
}

func (r *PostgresReportRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	report := &models.Report{}
	var profileJSON []byte
	if err := row.Scan(&report.ID, &report.StudentID, &report.StudentName, &profileJSON, &report.Content, &report.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(profileJSON, &report.Profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return report, nil
}
