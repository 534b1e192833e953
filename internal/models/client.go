package models

import (
	"strings"
	"time"
)

// Permissions understood by the admin API
const (
	PermissionSubmissionsReview = "submissions:review"
	PermissionSubmissionsRead   = "submissions:read"
)

// ApiClient is an operator tool or back-office service allowed to call admin routes
type ApiClient struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	ApiKey      string            `json:"-"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUsedAt  *time.Time        `json:"last_used_at,omitempty"`
	Permissions []string          `json:"permissions"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// HasPermission checks a permission, honouring "*" and "scope:*" grants
func (c *ApiClient) HasPermission(required string) bool {
	if c == nil || !c.IsActive {
		return false
	}

	for _, granted := range c.Permissions {
		switch {
		case granted == "*", granted == required:
			return true
		case strings.HasSuffix(granted, ":*"):
			if strings.HasPrefix(required, strings.TrimSuffix(granted, "*")) {
				return true
			}
		}
	}
	return false
}

// MaskedApiKey returns first 8 characters of API key for logging
func (c *ApiClient) MaskedApiKey() string {
	return MaskKey(c.ApiKey)
}

// MaskKey hides all but the first 8 characters of a key
func MaskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}
