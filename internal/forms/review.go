package forms

import (
	"errors"
	"fmt"
	"strings"

	"privacyreport/backend/internal/models"
)

// ErrIncompleteReport means a review was requested before every
// prerequisite field was collected. This is an internal invariant
// violation, not a user condition: a later step ran ahead of an earlier
// one. Handlers log it and answer with a generic failure.
var ErrIncompleteReport = errors.New("report rendered before required fields were set")

// Review turns the report's collected fields into ordered review segments,
// one per field. Required fields (for whom, to whom, reason) fail loudly
// when unset rather than rendering a blank.
func Review(report *models.Report) ([]string, error) {
	if len(report.ForWhom) == 0 || report.ToWhom == "" || report.Reason == "" {
		return nil, ErrIncompleteReport
	}

	forWhom := make([]string, 0, len(report.ForWhom))
	for _, value := range report.ForWhom {
		forWhom = append(forWhom, strings.ToLower(optionLabel(ForWhomOptions, value)))
	}

	segments := []string{
		fmt.Sprintf(":mailbox_with_mail: You are reporting <@%s> to **%s**.",
			report.ReportedUserID, strings.ToLower(optionLabel(ToWhomOptions, report.ToWhom))),
		fmt.Sprintf(":handshake: You are reporting this user on behalf of **%s**.",
			strings.Join(forWhom, ", ")),
		fmt.Sprintf(":exclamation: You are reporting this user because they have **%s**.",
			strings.ToLower(optionLabel(ReasonOptions, report.Reason))),
	}

	if report.ContextNote != "" {
		segments = append(segments, fmt.Sprintf(":speech_balloon: The report will include **%s**.",
			strings.ToLower(optionLabel(ContextOptions, report.ContextNote))))
	}
	if report.Details != "" {
		segments = append(segments, fmt.Sprintf(":writing_hand: You also provide more details about the incident:\n\n> *%s*",
			report.Details))
	}
	if report.Outcome != "" {
		segments = append(segments, fmt.Sprintf(":scales: You are asking the moderators to **%s**.",
			strings.ToLower(optionLabel(OutcomeOptions, report.Outcome))))
	}

	return segments, nil
}

// ReportSummaryLine is the one-line form used by the /myreports listing.
func ReportSummaryLine(report *models.Report) string {
	reason := "no reason selected yet"
	if report.Reason != "" {
		reason = strings.ToLower(optionLabel(ReasonOptions, report.Reason))
	}
	return fmt.Sprintf("- `%s` report against <@%s> for %s", report.Status, report.ReportedUserID, reason)
}
