package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment
// variables. INSTAGRAM_SESSION_ID is accepted as a legacy alias so
// deployments migrated from the old cron job keep working.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func sessionFromEnv() string {
	if sessionID := os.Getenv("IGFEEDSYNC_SESSION_ID"); sessionID != "" {
		return sessionID
	}
	return os.Getenv("INSTAGRAM_SESSION_ID")
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	sessionID := sessionFromEnv()
	if sessionID == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables don't carry a username, so we use "default"
	// or the provided one
	if username == "" {
		username = "default"
	}

	return &Account{
		Username:     username,
		SessionID:    sessionID,
		UserAgent:    os.Getenv("IGFEEDSYNC_USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	return sessionFromEnv() != ""
}
