package gateway

import "context"

// Command is implemented by every operation payload type. Perform runs the
// operation's business logic, composing whichever guards it needs, and
// returns a JSON-serializable result.
type Command[R any] interface {
	Perform(ctx context.Context, app *Context, conn *ConnectionID) (R, error)
}
