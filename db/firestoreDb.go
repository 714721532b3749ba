package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FirestoreConfig struct {
	ProjectID  string
	Collection string
	// KeyPath points at a service-account JSON file. CredentialsJSON, when
	// set, takes precedence and holds the same document inline.
	KeyPath         string
	CredentialsJSON string
}

type FirestoreProfileRepository struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreProfileRepository(ctx context.Context, cfg FirestoreConfig) (*FirestoreProfileRepository, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.KeyPath != "":
		opts = append(opts, option.WithCredentialsFile(cfg.KeyPath))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "users"
	}

	return &FirestoreProfileRepository{client: client, collection: collection}, nil
}

func (r *FirestoreProfileRepository) GetProfile(ctx context.Context, id string) (map[string]any, error) {
	snap, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("student with id %s: %w", id, ErrProfileNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if !snap.Exists() {
		return nil, fmt.Errorf("student with id %s: %w", id, ErrProfileNotFound)
	}

	return snap.Data(), nil
}

func (r *FirestoreProfileRepository) SaveProfile(ctx context.Context, id string, data map[string]any) error {
	if _, err := r.client.Collection(r.collection).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *FirestoreProfileRepository) Close() error {
	return r.client.Close()
}
