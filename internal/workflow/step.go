// Package workflow drives a report through the fixed-order disclosure
// chain. Each inbound interaction carries a step tag and a magic token in
// its component identifier; the engine reconstructs all state from the
// token and the store, performs the step's single side effect, and renders
// the next step's prompt. Nothing is held in memory between steps.
package workflow

import (
	"errors"
	"strings"
)

// Step identifies one stage of the disclosure workflow. Steps form a closed
// set; dispatch is by typed value, not by matching substrings of raw
// identifiers.
type Step string

const (
	StepMergeReports Step = "merge-reports"
	StepStartReport  Step = "start-report"
	StepForWhom      Step = "report-for-whom"
	StepToWhom       Step = "report-to-whom"
	StepReason       Step = "report-reason"
	StepContext      Step = "report-context"
	StepDetails      Step = "report-details"
	StepOutcome      Step = "report-outcome"
	StepSubmit       Step = "submit-report"
	StepFinalReview  Step = "final-review"
)

// FullSteps is the complete deployment chain.
var FullSteps = []Step{
	StepMergeReports,
	StepStartReport,
	StepForWhom,
	StepToWhom,
	StepReason,
	StepContext,
	StepDetails,
	StepOutcome,
	StepSubmit,
	StepFinalReview,
}

// ReducedSteps is the shorter variant without the context and outcome
// questions. The engine takes whichever list the deployment configures.
var ReducedSteps = []Step{
	StepMergeReports,
	StepStartReport,
	StepForWhom,
	StepToWhom,
	StepReason,
	StepDetails,
	StepSubmit,
	StepFinalReview,
}

var (
	ErrInvalidStep       = errors.New("unrecognized workflow step")
	ErrWindowNotRedacted = errors.New("message window has not been redacted yet")
	ErrReportNotFound    = errors.New("report not found")
)

// customIDSeparator joins the step tag and the magic token inside a
// component identifier.
const customIDSeparator = "."

// CustomID builds the component identifier for a step.
func CustomID(step Step, tok string) string {
	return string(step) + customIDSeparator + tok
}

// ParseCustomID splits an inbound component identifier into its step tag
// and token. The tag is not validated here; the engine rejects unknown
// steps against its configured list.
func ParseCustomID(customID string) (Step, string, error) {
	tag, tok, found := strings.Cut(customID, customIDSeparator)
	if !found || tag == "" {
		return "", "", ErrInvalidStep
	}
	return Step(tag), tok, nil
}
