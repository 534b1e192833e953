package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/terra-clan/progress-engine/internal/models"
	"github.com/terra-clan/progress-engine/internal/storage"
)

const lastUsedTimeout = 5 * time.Second

// AuthMiddleware guards the /admin routes with API keys from the client store
type AuthMiddleware struct {
	clients storage.ClientStore
}

// NewAuthMiddleware creates the admin guard. A nil store rejects every key.
func NewAuthMiddleware(clients storage.ClientStore) *AuthMiddleware {
	return &AuthMiddleware{clients: clients}
}

// Authenticate resolves the request's API key to an active client and stores
// it on the request context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := apiKeyFromRequest(r)
		if apiKey == "" {
			respondError(w, http.StatusUnauthorized, "missing_api_key",
				"send the key as X-API-Key or Authorization: Bearer <key>")
			return
		}

		client, ok := m.lookup(w, r, apiKey)
		if !ok {
			return
		}

		go m.touch(apiKey, client.Name)

		slog.Debug("admin request authenticated",
			"client", client.Name,
			"key_prefix", client.MaskedApiKey(),
			"path", r.URL.Path,
		)
		next.ServeHTTP(w, r.WithContext(withClient(r.Context(), client)))
	})
}

// lookup writes the error response itself and reports false when the key
// does not belong to an active client
func (m *AuthMiddleware) lookup(w http.ResponseWriter, r *http.Request, apiKey string) (*models.ApiClient, bool) {
	masked := models.MaskKey(apiKey)

	if m.clients == nil {
		respondError(w, http.StatusUnauthorized, "invalid_api_key", "unknown api key")
		return nil, false
	}

	client, err := m.clients.GetClientByApiKey(r.Context(), apiKey)
	switch {
	case err != nil:
		slog.Error("failed to look up admin client", "error", err, "key_prefix", masked)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to authenticate")
		return nil, false
	case client == nil:
		slog.Warn("unknown api key", "key_prefix", masked, "remote_addr", r.RemoteAddr)
		respondError(w, http.StatusUnauthorized, "invalid_api_key", "unknown api key")
		return nil, false
	case !client.IsActive:
		slog.Warn("deactivated client rejected", "client", client.Name, "key_prefix", masked)
		respondError(w, http.StatusUnauthorized, "client_inactive", "api key is deactivated")
		return nil, false
	}
	return client, true
}

// touch stamps last_used_at outside the request lifetime
func (m *AuthMiddleware) touch(apiKey, clientName string) {
	ctx, cancel := context.WithTimeout(context.Background(), lastUsedTimeout)
	defer cancel()
	if err := m.clients.UpdateClientLastUsed(ctx, apiKey); err != nil {
		slog.Warn("failed to stamp client last use", "error", err, "client", clientName)
	}
}

// RequirePermission rejects authenticated clients lacking permission. It
// must run after Authenticate.
func (m *AuthMiddleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientFromContext(r.Context())
			switch {
			case client == nil:
				respondError(w, http.StatusUnauthorized, "not_authenticated", "admin route requires an api key")
			case !client.HasPermission(permission):
				slog.Warn("admin permission denied",
					"client", client.Name,
					"required", permission,
					"granted", client.Permissions,
				)
				respondError(w, http.StatusForbidden, "permission_denied", "missing permission "+permission)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// apiKeyFromRequest prefers X-API-Key and falls back to the Authorization
// header, with or without a Bearer prefix
func apiKeyFromRequest(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if rest, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return auth
}
