package frontend

import (
	"fmt"
	"io"
	"time"

	"github.com/mikey/app-tracker/internal/classifier"
	"github.com/mikey/app-tracker/internal/core"
)

// Reporter prints human-readable pipeline results for the command line
type Reporter struct {
	out     io.Writer
	verbose bool
}

// NewReporter creates a reporter writing to out
func NewReporter(out io.Writer, verbose bool) *Reporter {
	return &Reporter{out: out, verbose: verbose}
}

// PrintEmail prints the summary of a single email
func (r *Reporter) PrintEmail(email *core.NormalizedEmail) {
	fmt.Fprintf(r.out, "\n=== Email Summary ===\n")
	fmt.Fprintf(r.out, "From: %s\n", email.From)
	fmt.Fprintf(r.out, "Subject: %s\n", email.Subject)
	fmt.Fprintf(r.out, "Date: %s\n", email.Date.Format(core.TimestampLayout))
	fmt.Fprintf(r.out, "Body length: %d bytes\n", len(email.Body))
	for _, link := range email.ActionLinks {
		fmt.Fprintf(r.out, "Action link: %s\n", link)
	}

	if r.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Fprintf(r.out, "\nBody preview:\n%s\n", preview)
	}
}

// PrintClassification prints the filter decision, the result and every cascade attempt
func (r *Reporter) PrintClassification(decision core.FilterDecision, result *core.ClassificationResult, attempts []classifier.Attempt, duration time.Duration) {
	fmt.Fprintf(r.out, "\n=== Filter ===\n")
	fmt.Fprintf(r.out, "Admitted: %t\n", decision.Admit)
	fmt.Fprintf(r.out, "Reason: %s\n", decision.Reason)

	if result == nil {
		return
	}

	fmt.Fprintf(r.out, "\n=== Classification ===\n")
	fmt.Fprintf(r.out, "Company: %s\n", result.Company)
	fmt.Fprintf(r.out, "Role: %s\n", result.Role)
	fmt.Fprintf(r.out, "Status: %s\n", result.Status)
	fmt.Fprintf(r.out, "Confidence: %.2f\n", result.Confidence)
	fmt.Fprintf(r.out, "Reasoning: %s\n", result.Reasoning)
	fmt.Fprintf(r.out, "Source: %s\n", result.Source)
	if result.ActionLink != "" {
		fmt.Fprintf(r.out, "Action link: %s\n", result.ActionLink)
	}
	fmt.Fprintf(r.out, "Processing time: %v\n", duration)

	if len(attempts) == 0 {
		return
	}
	fmt.Fprintf(r.out, "\n=== Attempts ===\n")
	for _, a := range attempts {
		outcome := "ok"
		if a.Err != nil {
			outcome = a.Err.Error()
		}
		fmt.Fprintf(r.out, "%s:%s (%v): %s\n", a.Provider, a.Model, a.Duration.Round(time.Millisecond), outcome)
	}
}

// PrintDecision prints what the tracker did with a classified email
func (r *Reporter) PrintDecision(d core.TrackDecision) {
	fmt.Fprintf(r.out, "\n=== Tracking ===\n")
	fmt.Fprintf(r.out, "Action: %s\n", d.Action)
	fmt.Fprintf(r.out, "Reason: %s\n", d.Reason)
}

// PrintOutcome prints one line per processed email
func (r *Reporter) PrintOutcome(o core.EmailOutcome) {
	switch {
	case o.Error != "":
		fmt.Fprintf(r.out, "  ! %s: %s\n", o.Subject, o.Error)
	case !o.Admitted:
		if r.verbose {
			fmt.Fprintf(r.out, "  - %s (%s)\n", o.Subject, o.FilterReason)
		}
	case o.Decision == nil:
		fmt.Fprintf(r.out, "  ? %s: confidence %.2f below threshold\n", o.Subject, o.Result.Confidence)
	default:
		marker := "="
		if o.Decision.Applied {
			marker = "+"
		}
		fmt.Fprintf(r.out, "  %s %s - %s: %s (%s)\n", marker, o.Result.Company, o.Result.Role, o.Result.Status, o.Decision.Reason)
	}
}

// PrintSummary prints the per-email lines and the counters of a pass
func (r *Reporter) PrintSummary(s *core.PassSummary) {
	fmt.Fprintf(r.out, "\nProcessing %d emails...\n", s.Fetched)
	for _, o := range s.Outcomes {
		r.PrintOutcome(o)
	}
	fmt.Fprintf(r.out, "\nFiltered: %d  Created: %d  Updated: %d  Skipped: %d  Failed: %d\n",
		s.Filtered, s.Created, s.Updated, s.Skipped, s.Failed)
}

// PrintStatistics prints the per-status record counts
func (r *Reporter) PrintStatistics(stats core.Statistics) {
	fmt.Fprintf(r.out, "\n=== Statistics ===\n")
	fmt.Fprintf(r.out, "Total: %d\n", stats.Total)
	for _, status := range core.CanonicalStatuses() {
		fmt.Fprintf(r.out, "%s: %d\n", status, stats.ByStatus[status])
	}
}
