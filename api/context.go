package api

import (
	"context"
)

type keyType string

const (
	usernameKey keyType = "username"
)

// ctxWithUsername adds the authenticated admin to the context
func ctxWithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// ctxGetUsername returns the authenticated admin, if any
func ctxGetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}
