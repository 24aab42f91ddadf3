// internal/browser/context.go
package browser

import (
	"context"
)

// CombineContext derives a context from primary (which carries the CDP target)
// that is also canceled when secondary is done, and that inherits secondary's
// deadline when it has one. context.Cause on the result reports the secondary's
// error when that is what ended it.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancelCause := context.WithCancelCause(primary)

	cancelDeadline := context.CancelFunc(func() {})
	if d, ok := secondary.Deadline(); ok {
		combined, cancelDeadline = context.WithDeadline(combined, d)
	}

	stop := context.AfterFunc(secondary, func() {
		cancelCause(context.Cause(secondary))
	})

	return combined, func() {
		stop()
		cancelDeadline()
		cancelCause(context.Canceled)
	}
}

// Detach returns a context that keeps ctx's values (the CDP target among them)
// but ignores its cancellation and deadline. Cleanup work runs under it.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
