// internal/reporting/text_reporter.go
package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
)

// TextReporter prints a human-readable summary of each run as it arrives.
type TextReporter struct {
	mu     sync.Mutex
	writer io.WriteCloser

	pass    func(a ...interface{}) string
	fail    func(a ...interface{}) string
	heading func(a ...interface{}) string
}

// NewTextReporter takes ownership of w.
func NewTextReporter(w io.WriteCloser) *TextReporter {
	return &TextReporter{
		writer:  w,
		pass:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		fail:    color.New(color.FgRed, color.Bold).SprintFunc(),
		heading: color.New(color.FgCyan).SprintFunc(),
	}
}

func (r *TextReporter) Write(report *schemas.RunReport) error {
	if report == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := io.WriteString(r.writer, r.render(report))
	return err
}

// FormatText renders a report the way TextReporter does, without colors.
func FormatText(report *schemas.RunReport) string {
	plain := func(a ...interface{}) string { return fmt.Sprint(a...) }
	r := &TextReporter{pass: plain, fail: plain, heading: plain}
	return r.render(report)
}

func (r *TextReporter) render(report *schemas.RunReport) string {
	var b strings.Builder
	if report.Requirement != "" {
		fmt.Fprintf(&b, "%s %s\n", r.heading("Requirement:"), report.Requirement)
	}
	fmt.Fprintf(&b, "%s %s\n", r.heading("URL:"), report.URL)

	fmt.Fprintf(&b, "%s\n", r.heading("Steps:"))
	for i, step := range report.Plan {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, describeStep(step))
	}

	result := r.pass(string(report.Verdict.Result))
	if !report.Verdict.Passed() {
		result = r.fail(string(report.Verdict.Result))
	}
	fmt.Fprintf(&b, "%s %s", r.heading("Result:"), result)
	if report.Duration > 0 {
		fmt.Fprintf(&b, " (%s)", report.Duration.Round(time.Millisecond))
	}
	b.WriteString("\n")

	if report.Verdict.Reason != "" {
		fmt.Fprintf(&b, "%s %s\n", r.heading("Reason:"), report.Verdict.Reason)
	}
	if report.Explanation != "" {
		fmt.Fprintf(&b, "%s %s\n", r.heading("Explanation:"), report.Explanation)
	}
	if report.Verdict.ArtifactPath != "" {
		fmt.Fprintf(&b, "%s %s\n", r.heading("Screenshot:"), report.Verdict.ArtifactPath)
	}
	return b.String()
}

func (r *TextReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Close()
}

// describeStep renders one action as a single line, e.g.
// `input username (id) = "admin"`.
func describeStep(a schemas.Action) string {
	var b strings.Builder
	b.WriteString(string(a.Action))
	if a.Selector != "" {
		b.WriteString(" ")
		b.WriteString(a.Selector)
		b.WriteString(" (")
		b.WriteString(string(a.SelectorType.Normalize()))
		b.WriteString(")")
	}
	if a.Value.IsSet() {
		fmt.Fprintf(&b, " = %q", a.Value.String())
	}
	return b.String()
}
