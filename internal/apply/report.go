package apply

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/multierr"

	"github.com/tstack-labs/tstack/internal/feature"
)

// Status is the outcome of one feature or target.
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// TargetResult is what happened to one target directory.
type TargetResult struct {
	Target  Target
	Status  Status
	Changed []string
	Reason  string
}

// Result is the outcome of one feature.
type Result struct {
	Feature feature.ID
	Status  Status
	// Reason explains a skipped feature.
	Reason  string
	Files   []string
	Targets []TargetResult
	Err     error
}

// Report is the per-feature outcome of one Apply call.
type Report struct {
	Results []Result
	// Addons is the addon list persisted to the project record.
	Addons []string
}

// Failed lists the features that failed.
func (r *Report) Failed() []feature.ID {
	var out []feature.ID
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res.Feature)
		}
	}
	return out
}

// Succeeded lists the features that were applied or skipped.
func (r *Report) Succeeded() []feature.ID {
	var out []feature.ID
	for _, res := range r.Results {
		if res.Status != StatusFailed {
			out = append(out, res.Feature)
		}
	}
	return out
}

// ApplicationError is a failure of one step of one feature.
type ApplicationError struct {
	Feature feature.ID
	Target  Target
	Step    string
	Err     error
}

func (e *ApplicationError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Feature, e.Step, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Feature, e.Step, e.Err)
}

func (e *ApplicationError) Unwrap() error { return e.Err }

// PartialFailure is returned when some features failed while the others were
// applied and persisted.
type PartialFailure struct {
	Failed []feature.ID
	// Err combines the ApplicationErrors of every failed feature.
	Err error
}

func (e *PartialFailure) Error() string {
	names := make([]string, len(e.Failed))
	for i, id := range e.Failed {
		names[i] = string(id)
	}
	return fmt.Sprintf("%d feature(s) failed: %s", len(e.Failed), strings.Join(names, ", "))
}

func (e *PartialFailure) Unwrap() []error { return multierr.Errors(e.Err) }

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	failMark = color.New(color.FgRed).Sprint("✗")
	skipMark = color.New(color.FgYellow).Sprint("−")
)

// PrintReport writes one line per feature and, for failures, the cause.
func PrintReport(w io.Writer, r *Report) {
	for _, res := range r.Results {
		label := res.Feature.Label()
		switch res.Status {
		case StatusApplied:
			fmt.Fprintf(w, "  %s %s\n", okMark, label)
			for _, t := range res.Targets {
				if t.Status == StatusSkipped {
					fmt.Fprintf(w, "      %s %s skipped: %s\n", skipMark, t.Target, t.Reason)
				}
			}
		case StatusSkipped:
			fmt.Fprintf(w, "  %s %s (skipped: %s)\n", skipMark, label, res.Reason)
		case StatusFailed:
			fmt.Fprintf(w, "  %s %s: %v\n", failMark, label, res.Err)
		}
	}
}
