package context

import (
	"context"
	"strconv"
)

type ContextKey string

var (
	RequestIDKey = ContextKey("X-Request-Id")
	UserIDKey    = ContextKey("X-User-Id")
	SiteIDKey    = ContextKey("X-Site-Id")
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	value, ok := ctx.Value(RequestIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

// SetUserID stores the acting user. Permission-gated filters read it.
func SetUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID returns the acting user and whether one is set.
func GetUserID(ctx context.Context) (int64, bool) {
	switch value := ctx.Value(UserIDKey).(type) {
	case int64:
		return value, true
	case string:
		id, err := strconv.ParseInt(value, 10, 64)
		return id, err == nil
	}
	return 0, false
}

// SetSiteID stores the current site, used when a criteria names no site.
func SetSiteID(ctx context.Context, siteID int64) context.Context {
	return context.WithValue(ctx, SiteIDKey, siteID)
}

func GetSiteID(ctx context.Context) (int64, bool) {
	value, ok := ctx.Value(SiteIDKey).(int64)
	return value, ok
}
