package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SafeDelete deletes cache keys, logging instead of returning failures
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// UserIDKey and UserEmailKey name the two cache entries kept per user record.
// Emails match case-insensitively, so their key is normalized.
func UserIDKey(id string) string { return fmt.Sprintf("id:%s", id) }
func UserEmailKey(email string) string {
	return fmt.Sprintf("email:%s", strings.ToLower(strings.TrimSpace(email)))
}

// InvalidateUserCache drops every cached copy of a user record
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID, email string) {
	keys := []string{UserIDKey(userID)}
	if email != "" {
		keys = append(keys, UserEmailKey(email))
	}
	SafeDelete(ctx, cm.User, keys...)
}
