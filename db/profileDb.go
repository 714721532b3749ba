package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository stores raw student documents. Documents are returned
// untouched; field-name normalization happens in the service layer.
type ProfileRepository interface {
	GetProfile(ctx context.Context, id string) (map[string]any, error)
	SaveProfile(ctx context.Context, id string, data map[string]any) error
	Close() error
}

type PostgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(databaseURL string) (*PostgresProfileRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresProfileRepository{db: db}, nil
}

func (r *PostgresProfileRepository) GetProfile(ctx context.Context, id string) (map[string]any, error) {
	query := `
		SELECT data
		FROM disha.student_profiles
		WHERE id = $1`

	var raw []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("student with id %s: %w", id, ErrProfileNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	data := make(map[string]any)
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return data, nil
}

func (r *PostgresProfileRepository) SaveProfile(ctx context.Context, id string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	query := `
		INSERT INTO disha.student_profiles (id, data)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, id, raw); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

func (r *PostgresProfileRepository) Close() error {
	return r.db.Close()
}
