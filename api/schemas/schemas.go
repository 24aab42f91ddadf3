package schemas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ActionKind identifies one step type of a test plan.
type ActionKind string

const (
	ActionNavigate ActionKind = "navigate"
	ActionInput    ActionKind = "input"
	ActionClick    ActionKind = "click"
	ActionCheck    ActionKind = "check"
	ActionWait     ActionKind = "wait"
)

// AllowedActions is the closed set of action kinds the interpreter understands.
var AllowedActions = map[ActionKind]struct{}{
	ActionNavigate: {},
	ActionInput:    {},
	ActionClick:    {},
	ActionCheck:    {},
	ActionWait:     {},
}

// RequiresSelector reports whether the action kind targets a page element.
func (k ActionKind) RequiresSelector() bool {
	switch k {
	case ActionInput, ActionClick, ActionCheck:
		return true
	default:
		return false
	}
}

// SelectorType is the strategy used to locate an element from a selector string.
type SelectorType string

const (
	SelectorID              SelectorType = "id"
	SelectorName            SelectorType = "name"
	SelectorCSS             SelectorType = "css"
	SelectorXPath           SelectorType = "xpath"
	SelectorTag             SelectorType = "tag"
	SelectorClass           SelectorType = "class"
	SelectorLinkText        SelectorType = "link_text"
	SelectorPartialLinkText SelectorType = "partial_link_text"
)

var knownSelectorTypes = map[SelectorType]struct{}{
	SelectorID:              {},
	SelectorName:            {},
	SelectorCSS:             {},
	SelectorXPath:           {},
	SelectorTag:             {},
	SelectorClass:           {},
	SelectorLinkText:        {},
	SelectorPartialLinkText: {},
}

// Normalize lower-cases the type and maps empty or unknown values to SelectorID.
func (t SelectorType) Normalize() SelectorType {
	n := SelectorType(strings.ToLower(strings.TrimSpace(string(t))))
	if _, ok := knownSelectorTypes[n]; !ok {
		return SelectorID
	}
	return n
}

// ActionValue holds the "value" attribute of an action. Models emit it either as a
// JSON string or as a number (milliseconds for wait), so both are accepted and the
// textual form is kept.
type ActionValue struct {
	raw     string
	present bool
}

// NewValue builds a present ActionValue from text.
func NewValue(s string) ActionValue { return ActionValue{raw: s, present: true} }

// String returns the textual value, empty if absent.
func (v ActionValue) String() string { return v.raw }

// IsSet reports whether the value was supplied at all.
func (v ActionValue) IsSet() bool { return v.present }

// MaxMillis is the largest millisecond count that still fits in a time.Duration.
const MaxMillis = int64(math.MaxInt64 / int64(time.Millisecond))

// Millis interprets the value as a millisecond count, returning def when the value
// is absent, empty, not numeric, negative, or too large for a time.Duration.
func (v ActionValue) Millis(def int) int {
	s := strings.TrimSpace(v.raw)
	if !v.present || s == "" {
		return def
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 || n > MaxMillis {
			return def
		}
		return int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		if f < 0 || f > float64(MaxMillis) {
			return def
		}
		return int(f)
	}
	return def
}

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (v *ActionValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ActionValue{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = NewValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NewValue(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = NewValue(strconv.FormatBool(b))
		return nil
	}
	return fmt.Errorf("unsupported action value: %s", string(data))
}

// MarshalJSON writes the value back as a string, or null when absent.
func (v ActionValue) MarshalJSON() ([]byte, error) {
	if !v.present {
		return []byte("null"), nil
	}
	return json.Marshal(v.raw)
}

// Action is a single step of a generated test plan.
type Action struct {
	Action       ActionKind   `json:"action" yaml:"action" jsonschema:"enum=navigate,enum=input,enum=click,enum=check,enum=wait,description=Step kind"`
	Selector     string       `json:"selector,omitempty" yaml:"selector,omitempty" jsonschema:"description=Element locator; required for input/click/check"`
	SelectorType SelectorType `json:"selectorType,omitempty" yaml:"selectorType,omitempty" jsonschema:"enum=id,enum=name,enum=css,enum=xpath,enum=tag,enum=class,enum=link_text,enum=partial_link_text,default=id"`
	Value        ActionValue  `json:"value,omitzero" yaml:"value,omitempty" jsonschema:"description=Text to type or expect; milliseconds for wait"`
}

// Plan is an ordered test plan.
type Plan []Action

// Result is the terminal outcome of a run.
type Result string

const (
	ResultPass Result = "PASS"
	ResultFail Result = "FAIL"
)

// Verdict is the PASS/FAIL outcome of a single run plus its explanation.
type Verdict struct {
	Result       Result `json:"result"`
	Reason       string `json:"reason"`
	ArtifactPath string `json:"artifact_path,omitempty"`
}

// Passed reports whether the verdict is PASS.
func (v Verdict) Passed() bool { return v.Result == ResultPass }

// Outcome returns the lower-case label used for artifact folders.
func (v Verdict) Outcome() string {
	if v.Passed() {
		return "pass"
	}
	return "fail"
}

// RunReport is the full record of one requirement-to-verdict run.
type RunReport struct {
	RunID       string        `json:"run_id"`
	Requirement string        `json:"requirement,omitempty"`
	URL         string        `json:"url"`
	Plan        Plan          `json:"plan"`
	Verdict     Verdict       `json:"verdict"`
	Explanation string        `json:"explanation,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}
