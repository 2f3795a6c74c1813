// Package tools implements the action handlers invoked by the dispatcher.
// Every handler validates its required parameters, performs one service
// operation, and reports the outcome as a Result value; handlers never
// propagate errors past their boundary.
package tools

import (
	"context"

	"pmbot/pkg/persistence"
	"pmbot/pkg/proto"
)

// Result is the outcome of one handler invocation. Message is always safe to
// forward verbatim to the user.
type Result struct {
	Success bool
	Message string
}

// Handler processes a resolved turn.
type Handler interface {
	Handle(ctx context.Context, turn *proto.Turn) Result
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, turn *proto.Turn) Result

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, turn *proto.Turn) Result {
	return f(ctx, turn)
}

// ok builds a success result.
func ok(message string) Result {
	return Result{Success: true, Message: message}
}

// fail builds a failure result with a specific corrective message.
func fail(message string) Result {
	return Result{Success: false, Message: message}
}

// isAdmin reports whether the turn's caller holds the admin role. Unknown
// users are not admins.
func isAdmin(ctx context.Context, store *persistence.Store, turn *proto.Turn) bool {
	user, err := store.GetUserByPlatformID(ctx, turn.UserID)
	return err == nil && user.Role == persistence.RoleAdmin
}
