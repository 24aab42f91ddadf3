// internal/reporting/json_reporter.go
package reporting

import (
	"fmt"
	"io"
	"sync"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
)

// JSONReporter collects reports and writes them as one JSON array on Close.
// It is thread safe.
type JSONReporter struct {
	mu      sync.Mutex
	writer  io.WriteCloser
	reports []*schemas.RunReport
	closed  bool
}

// NewJSONReporter takes ownership of w.
func NewJSONReporter(w io.WriteCloser) *JSONReporter {
	return &JSONReporter{writer: w, reports: []*schemas.RunReport{}}
}

func (r *JSONReporter) Write(report *schemas.RunReport) error {
	if report == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("json reporter already closed")
	}
	r.reports = append(r.reports, report)
	return nil
}

// Close serializes the collected reports and closes the writer. Calling it
// again is a no-op.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	enc := json.ConfigCompatibleWithStandardLibrary.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	encodeErr := enc.Encode(r.reports)
	closeErr := r.writer.Close()
	if encodeErr != nil {
		return fmt.Errorf("failed to encode json report: %w", encodeErr)
	}
	return closeErr
}
