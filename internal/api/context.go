package api

import (
	"context"

	"github.com/terra-clan/progress-engine/internal/models"
)

// clientKey carries the authenticated admin client on a request context
type clientKey struct{}

// ClientFromContext returns the admin client set by Authenticate, or nil on
// public routes
func ClientFromContext(ctx context.Context) *models.ApiClient {
	client, _ := ctx.Value(clientKey{}).(*models.ApiClient)
	return client
}

func withClient(ctx context.Context, client *models.ApiClient) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// reviewerName is recorded on reviewed submissions
func reviewerName(ctx context.Context) string {
	if client := ClientFromContext(ctx); client != nil {
		return client.Name
	}
	return ""
}
