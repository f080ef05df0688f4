package ports

import "context"

// AccountPort updates the public profile of a player account.
type AccountPort interface {
	// UpdateProfile sets the username and display name shown for userID.
	// Onboarding treats failures as non-fatal.
	UpdateProfile(ctx context.Context, userID, username, displayName string) error
}
