package authz

import "context"

// Identity describes the resolved acting user after a successful guard pass.
type Identity struct {
	UserID   int64
	TenantID int64
	Role     string
}

type identityContextKey struct{}
type permissionsContextKey struct{}

// ContextWithIdentity stores the resolved identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the resolved identity, if a guard ran.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// ContextWithPermissions stores the effective permission set in context so
// downstream handlers can reuse it without recomputation.
func ContextWithPermissions(ctx context.Context, ps PermissionSet) context.Context {
	return context.WithValue(ctx, permissionsContextKey{}, ps)
}

// PermissionsFromContext extracts the effective permission set, if a
// permission guard ran.
func PermissionsFromContext(ctx context.Context) (PermissionSet, bool) {
	ps, ok := ctx.Value(permissionsContextKey{}).(PermissionSet)
	return ps, ok
}
