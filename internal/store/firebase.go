package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// FirebaseStore reads trees with the Firebase Admin SDK, authenticating with a
// service account key file or, when none is given, application default
// credentials.
type FirebaseStore struct {
	client *db.Client
}

func NewFirebaseStore(ctx context.Context, databaseURL, credentialsFile string) (*FirebaseStore, error) {
	if databaseURL == "" {
		return nil, errors.New("firebase: database url is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: init database client: %w", err)
	}
	return &FirebaseStore{client: client}, nil
}

func (f *FirebaseStore) Get(ctx context.Context, path string) ([]byte, error) {
	// RawMessage keeps the children in the order the server sent them.
	var raw json.RawMessage
	if err := f.client.NewRef(normalizePath(path)).Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("firebase %s: %w", path, err)
	}
	return raw, nil
}

var _ Store = (*FirebaseStore)(nil)
