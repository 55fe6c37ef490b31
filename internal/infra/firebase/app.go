// Package firebase initializes the shared Firebase app handle used by the
// auth client and the Firestore document store.
package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"memorylane/config"
)

// NewApp creates the Firebase app from configuration. When no credentials
// path is set the application default credentials are used.
func NewApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	fbConfig := &firebase.Config{ProjectID: cfg.Firebase.ProjectID}

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	return app, nil
}
