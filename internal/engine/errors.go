// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
)

// ErrTimeout marks waits that ran out of time: page readiness, element
// presence, or element text.
var ErrTimeout = errors.New("timed out")

// ElementNotFoundError is returned when the primary lookup and every fallback
// strategy failed to locate an element. It matches ErrTimeout under errors.Is
// because resolution is a bounded wait that expired.
type ElementNotFoundError struct {
	Selector string
	Type     schemas.SelectorType
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("Could not find element: %s (type: %s)", e.Selector, e.Type)
}

// Is reports ErrTimeout as a match.
func (e *ElementNotFoundError) Is(target error) bool {
	return target == ErrTimeout
}
