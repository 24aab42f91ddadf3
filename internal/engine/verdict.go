// internal/engine/verdict.go
package engine

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/browser"
)

// StepStatus classifies how one step ended.
type StepStatus int

const (
	StepOK StepStatus = iota
	// StepSkipped marks navigate no-ops and unknown actions.
	StepSkipped
	// StepMismatch is a check whose text did not match. The run continues.
	StepMismatch
	// StepFault ends the run.
	StepFault
)

func (s StepStatus) String() string {
	switch s {
	case StepOK:
		return "ok"
	case StepSkipped:
		return "skipped"
	case StepMismatch:
		return "mismatch"
	case StepFault:
		return "fault"
	default:
		return fmt.Sprintf("StepStatus(%d)", int(s))
	}
}

// StepOutcome is what a single step contributes to the verdict.
type StepOutcome struct {
	Index  int
	Action schemas.ActionKind
	Status StepStatus
	Reason string
}

// faultOutcome converts an in-run error to a terminating outcome with the
// reason tag matching its class.
func faultOutcome(index int, action schemas.ActionKind, err error) StepOutcome {
	return StepOutcome{Index: index, Action: action, Status: StepFault, Reason: FaultReason(err)}
}

// FaultReason renders an in-run error as a verdict reason.
func FaultReason(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "Timeout waiting for element: " + err.Error()
	case errors.Is(err, browser.ErrNoSuchElement):
		return "Element not found: " + err.Error()
	default:
		return "Unexpected error: " + err.Error()
	}
}

// verdictAccumulator is the left fold over step outcomes. It starts at PASS,
// latches the first failure reason, and stops accepting steps after a fault.
type verdictAccumulator struct {
	result schemas.Result
	reason string
	halted bool
}

func newVerdictAccumulator() *verdictAccumulator {
	return &verdictAccumulator{result: schemas.ResultPass}
}

// Fold applies one outcome and reports whether the run should continue.
func (a *verdictAccumulator) Fold(o StepOutcome) bool {
	if a.halted {
		return false
	}
	switch o.Status {
	case StepMismatch:
		a.fail(o.Reason)
	case StepFault:
		a.fail(o.Reason)
		a.halted = true
	}
	return !a.halted
}

// fail records a failure. Only the first reason is kept.
func (a *verdictAccumulator) fail(reason string) {
	if a.result == schemas.ResultFail {
		return
	}
	a.result = schemas.ResultFail
	a.reason = reason
}

func (a *verdictAccumulator) Verdict() schemas.Verdict {
	return schemas.Verdict{Result: a.result, Reason: a.reason}
}
