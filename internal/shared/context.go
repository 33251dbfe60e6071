package shared

import "context"

// Unknown is recorded when a request attribute cannot be determined.
const Unknown = "unknown"

// ClientInfo describes the caller behind an operation.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type clientContextKey struct{}

// ContextWithClient stores client details in context.
func ContextWithClient(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientContextKey{}, info)
}

// ClientFromContext extracts client details, defaulting blank fields to Unknown.
func ClientFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientContextKey{}).(ClientInfo)
	if info.IPAddress == "" {
		info.IPAddress = Unknown
	}
	if info.UserAgent == "" {
		info.UserAgent = Unknown
	}
	return info
}
