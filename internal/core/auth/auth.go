// Package auth propagates the caller identity asserted by the upstream
// identity provider. Credentials are verified before requests reach this
// service; here the asserted user id is only checked for shape and carried
// in the request context.
package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	// UserIDHeader carries the caller identity on HTTP requests.
	UserIDHeader = "X-User-Id"
	// UserIDMetadataKey carries the caller identity on gRPC requests.
	UserIDMetadataKey = "x-user-id"

	maxUserIDLength = 128
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

const userIDKey = contextKey("user_id")

// ParseUserID validates an asserted user id. Empty means anonymous.
func ParseUserID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", nil
	}
	if len(id) > maxUserIDLength {
		return "", ErrInvalidUserID
	}
	for _, c := range id {
		if c <= ' ' || c == 0x7f {
			return "", ErrInvalidUserID
		}
	}
	return id, nil
}

// WithUserID returns ctx carrying the user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the user id from context.
// Returns empty string if not found.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// UnaryInterceptor injects the x-user-id metadata value into the context.
func UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}
		values := md.Get(UserIDMetadataKey)
		if len(values) == 0 {
			return handler(ctx, req)
		}
		id, err := ParseUserID(values[0])
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return handler(WithUserID(ctx, id), req)
	}
}
