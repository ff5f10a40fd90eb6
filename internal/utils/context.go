// Package utils provides helpers shared by the client and the remote store:
// request context keys, HMAC hashing of message uploads, JSON responses,
// resty clients, JWT handling and id generation.
package utils

import (
	"context"
)

// contextKey keeps context keys of this package apart from string keys set
// elsewhere.
type contextKey string

func (c contextKey) String() string {
	return string(c)
}

// UserIDCtxKey holds the token subject of an authenticated request.
var UserIDCtxKey = contextKey("userID")

// WithUserID returns a copy of ctx carrying the conversation owner.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDCtxKey, userID)
}

// GetUserIDFromContext returns the owner stored by WithUserID. ok is false
// when the value is missing or is not a positive id.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}
