// internal/browser/interfaces.go
package browser

import (
	"context"
	"errors"
)

// ErrNoSuchElement is returned by Driver.Find when nothing matches the locator.
var ErrNoSuchElement = errors.New("no such element")

// Launcher starts browser sessions. Each call to Open yields an independent
// session that the caller must Close.
type Launcher interface {
	Open(ctx context.Context) (Driver, error)
}

// Driver is a single browser tab under automation.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// ReadyState returns document.readyState of the current page.
	ReadyState(ctx context.Context) (string, error)
	// Find performs one lookup attempt and never waits for the element to
	// appear. It returns ErrNoSuchElement on a miss.
	Find(ctx context.Context, loc Locator) (Element, error)
	// Screenshot returns a PNG of the current viewport.
	Screenshot(ctx context.Context) ([]byte, error)
	Close(ctx context.Context) error
}

// Element is a handle to a node found by a Driver.
type Element interface {
	Clear(ctx context.Context) error
	Type(ctx context.Context, text string) error
	Click(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error
	// Text returns the rendered text of the element.
	Text(ctx context.Context) (string, error)
}
