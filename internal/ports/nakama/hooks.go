package nakama

import (
	"context"
	"database/sql"
	"fmt"

	"blackjack/internal/app/onboarding"
	"blackjack/internal/config"
	"blackjack/internal/ports"

	jwt "github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// AfterAuthenticateDevice onboards accounts created by this authentication.
func AfterAuthenticateDevice(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error {
	if !out.Created {
		return nil
	}

	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		// The context carries no user before the session exists; the token does.
		resolvedID, err := extractUserIDFromToken(out.Token)
		if err != nil {
			logger.Error("AfterAuthenticateDevice: Failed to extract user ID from token: %v", err)
			return err
		}
		userID = resolvedID
	}

	logger.Info("Onboarding new user %s", userID)

	scenarios, err := config.LoadScenarios(scenariosPath(ctx))
	if err != nil {
		// Without a catalogue the first match seeds the order instead.
		logger.Warn("AfterAuthenticateDevice: Could not load scenarios: %v", err)
	}
	stores := func(uid string) ports.KVStore { return NewNakamaStorageAdapter(nk, uid) }

	service := onboarding.NewService(NewNakamaAccountAdapter(nk), stores, scenarios, nil)
	result, err := service.OnboardNewUser(ctx, userID)
	if result.ProfileUpdateErr != nil {
		logger.Warn("AfterAuthenticateDevice: Failed to update profile for user %s: %v", userID, result.ProfileUpdateErr)
	}
	if err != nil {
		logger.Error("AfterAuthenticateDevice: Onboarding failed for user %s: %v", userID, err)
		return err
	}
	if !result.CampaignSeeded {
		logger.Info("AfterAuthenticateDevice: Campaign order already stored for user %s", userID)
	}
	return nil
}

// extractUserIDFromToken reads the uid claim of a session token. The server
// just issued it, so the signature is not checked.
func extractUserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", fmt.Errorf("token claims missing uid")
	}
	return uid, nil
}
