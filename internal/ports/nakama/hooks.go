package nakama

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"bluff/internal/app/onboarding"
)

// AfterAuthenticateDevice runs after device authentication. It rejects banned
// accounts before they reach any room and onboards fresh accounts with a
// friendly display name.
func AfterAuthenticateDevice(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error {
	return afterAuthenticate(ctx, logger, nk, out)
}

// AfterAuthenticateCustom mirrors the device hook for custom-id logins.
func AfterAuthenticateCustom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateCustomRequest) error {
	return afterAuthenticate(ctx, logger, nk, out)
}

func afterAuthenticate(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, out *api.Session) error {
	userID := ""
	if ctxUserID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string); ok {
		userID = ctxUserID
	}
	if userID == "" {
		// Resolve the user ID from the session token by parsing the JWT
		// payload manually.
		resolvedID, err := extractUserIDFromToken(out.Token)
		if err != nil {
			logger.Error("afterAuthenticate: Failed to extract user ID from token: %v", err)
			return err
		}
		userID = resolvedID
	}

	if rec, banned, err := moderationService(nk).CheckBanned(ctx, userID); err != nil {
		// A storage outage is not a ban; the login proceeds.
		logger.Error("afterAuthenticate: Ban check failed for %s: %v", userID, err)
	} else if banned {
		logger.Info("afterAuthenticate: Rejected banned user %s (reason: %s, until %s)", userID, rec.Reason, rec.ExpiresAt)
		return runtime.NewError("account is banned", 7)
	}

	if out.Created {
		logger.Info("Onboarding new user %s", userID)
		service := onboarding.NewService(NewNakamaAccountAdapter(nk), nil)
		name, err := service.OnboardNewUser(ctx, userID)
		if err != nil {
			// Best-effort; a failed rename should not block login.
			logger.Warn("afterAuthenticate: Onboarding failed for user %s: %v", userID, err)
			return nil
		}
		logger.Info("afterAuthenticate: User %s onboarded as %q", userID, name)
	}
	return nil
}

func extractUserIDFromToken(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid token format")
	}

	payload := parts[1]
	// JWT base64 is RawUrlEncoding (no padding)
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("failed to decode token payload: %w", err)
	}

	var claims map[string]interface{}
	if err := json.Unmarshal(data, &claims); err != nil {
		return "", fmt.Errorf("failed to unmarshal token claims: %w", err)
	}

	uid, ok := claims["uid"].(string)
	if !ok {
		return "", fmt.Errorf("token claims missing uid")
	}

	return uid, nil
}
