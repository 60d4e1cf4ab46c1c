// Package firebase connects to Firebase Authentication for federated sign-in.
package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// NewAuthClient builds the client that verifies the ID tokens presented to
// the Firebase login route and as bearer tokens.
func NewAuthClient(ctx context.Context, credentialsPath string) (*auth.Client, error) {
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials: %w", err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	log.WithField("credentials", credentialsPath).Info("Firebase sign-in enabled.")
	return client, nil
}
