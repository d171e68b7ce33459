package core

import "context"

// DefaultOwnerID owns every record in a single-user deployment.
const DefaultOwnerID = "default-user"

type ownerKey struct{}

// WithOwner returns a context carrying the acting owner.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFromContext returns the acting owner, or DefaultOwnerID when none is set.
func OwnerFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ownerKey{}).(string); ok && id != "" {
		return id
	}
	return DefaultOwnerID
}
