package forms

import (
	"fmt"
	"strings"
	"time"

	"privacyreport/backend/internal/discord"
	"privacyreport/backend/internal/models"
)

func selectPrompt(content, customID, placeholder string, options []discord.SelectOption, maxValues int) *discord.InteractionResponse {
	return &discord.InteractionResponse{
		Type: discord.ResponseChannelMessage,
		Data: &discord.ResponseData{
			Content: content,
			Components: discord.ActionRow(discord.Component{
				Type:        discord.ComponentStringSelect,
				CustomID:    customID,
				Options:     options,
				MaxValues:   maxValues,
				Placeholder: placeholder,
			}),
		},
	}
}

func stepHeading(pos, total int, question string) string {
	return fmt.Sprintf("### Reporting Process %d/%d.\n\n%s", pos, total, question)
}

// ForWhomPrompt asks on whose behalf the report is filed. Multi-select.
func ForWhomPrompt(customID string, pos, total int) *discord.InteractionResponse {
	return selectPrompt(
		stepHeading(pos, total, "Who is this report for?"),
		customID,
		"Select all that apply",
		ForWhomOptions,
		len(ForWhomOptions),
	)
}

// ToWhomPrompt asks which moderator group receives the report.
func ToWhomPrompt(customID string, pos, total int) *discord.InteractionResponse {
	return selectPrompt(
		stepHeading(pos, total, "Who should this report be sent to?"),
		customID,
		"Select the group of moderators you want to report to",
		ToWhomOptions,
		1,
	)
}

// ReasonPrompt asks what the reported user did.
func ReasonPrompt(customID string, pos, total int) *discord.InteractionResponse {
	return selectPrompt(
		stepHeading(pos, total, "They are being ..."),
		customID,
		"Select the best match",
		ReasonOptions,
		1,
	)
}

// ContextPrompt asks whether the redacted message window travels with the
// report.
func ContextPrompt(customID string, pos, total int) *discord.InteractionResponse {
	return selectPrompt(
		stepHeading(pos, total, "What should the moderators see?"),
		customID,
		"Select what to include",
		ContextOptions,
		1,
	)
}

// OutcomePrompt asks what the reporter wants the moderators to do.
func OutcomePrompt(customID string, pos, total int) *discord.InteractionResponse {
	return selectPrompt(
		stepHeading(pos, total, "What outcome are you hoping for?"),
		customID,
		"Select the closest match",
		OutcomeOptions,
		1,
	)
}

// DetailsModal opens the optional free-text modal.
func DetailsModal(modalCustomID, inputCustomID string) *discord.InteractionResponse {
	notRequired := false
	return &discord.InteractionResponse{
		Type: discord.ResponseModal,
		Data: &discord.ResponseData{
			Title:    "Provide more details if you want (optional)",
			CustomID: modalCustomID,
			Components: discord.ActionRow(discord.Component{
				Type:        discord.ComponentTextInput,
				CustomID:    inputCustomID,
				Label:       "Details",
				Style:       discord.TextInputParagraph,
				MaxLength:   1000,
				Placeholder: "Provide more details here",
				Required:    &notRequired,
			}),
		},
	}
}

// SubmitPrompt renders the pre-submission review with the submit button.
func SubmitPrompt(report *models.Report, customID string) (*discord.InteractionResponse, error) {
	segments, err := Review(report)
	if err != nil {
		return nil, err
	}
	content := fmt.Sprintf("### :clipboard: Review your report before submitting\n\n%s\n### Please confirm that you want to submit this report.",
		strings.Join(segments, "\n\n"))
	return &discord.InteractionResponse{
		Type: discord.ResponseChannelMessage,
		Data: &discord.ResponseData{
			Content: content,
			Components: discord.ActionRow(discord.Component{
				Type:     discord.ComponentButton,
				CustomID: customID,
				Label:    "Submit Report",
				Style:    discord.ButtonPrimary,
			}),
		},
	}, nil
}

// FinalReview renders the closing summary after submission. Terminal: no
// components, nothing left to click.
func FinalReview(report *models.Report) (*discord.InteractionResponse, error) {
	segments, err := Review(report)
	if err != nil {
		return nil, err
	}
	content := fmt.Sprintf("### Review your final report.\n\n%s\n### Thank you for your report. We will review it and take appropriate action.",
		strings.Join(segments, "\n\n"))
	return &discord.InteractionResponse{
		Type: discord.ResponseChannelMessage,
		Data: &discord.ResponseData{Content: content},
	}, nil
}

// StartReportMessage is the DM sent once redaction is done and no merge
// candidates exist: a single button that enters the disclosure chain.
func StartReportMessage(customID string) (string, []discord.Component) {
	content := "### :shield: Your redacted report is ready.\n\nPress the button below to walk through a few questions and submit it to the moderators."
	components := discord.ActionRow(discord.Component{
		Type:     discord.ComponentButton,
		CustomID: customID,
		Label:    "Start Report",
		Style:    discord.ButtonPrimary,
	})
	return content, components
}

// MagicLinkMessage is the in-channel reply to the report command: a link
// button to the web portal.
func MagicLinkMessage(magicLink string) (string, []discord.Component) {
	content := "Redact your reports using our web portal"
	components := discord.ActionRow(discord.Component{
		Type:  discord.ComponentButton,
		URL:   magicLink,
		Label: "Redact Reports",
		Style: discord.ButtonLink,
	})
	return content, components
}

// MergePrompt is the DM sent when the reporter already has eligible reports
// against the same user: a select listing each candidate plus the option to
// start fresh.
func MergePrompt(report *models.Report, similars []models.Report, customID string) (string, []discord.Component) {
	content := strings.Join([]string{
		fmt.Sprintf("### :mailbox_with_mail: You are reporting <@%s>.", report.ReportedUserID),
		"You have now successfully redacted your reports. We have found that you have pending reports for this user before, do you want to merge them into one report?",
	}, "\n\n")

	options := []discord.SelectOption{{Label: "No, I want to start a new report", Value: "no"}}
	for _, similar := range similars {
		option := discord.SelectOption{
			Label: fmt.Sprintf("Report on %s", formatTimestamp(similar.ReportingTimestamp)),
			Value: similar.ID,
		}
		if similar.Reason != "" {
			option.Description = fmt.Sprintf("for %s", strings.ToLower(optionLabel(ReasonOptions, similar.Reason)))
		}
		options = append(options, option)
	}

	components := discord.ActionRow(discord.Component{
		Type:        discord.ComponentStringSelect,
		CustomID:    customID,
		Options:     options,
		MaxValues:   1,
		Placeholder: "Select the report you want to merge with",
	})
	return content, components
}

func formatTimestamp(epochSeconds int64) string {
	return time.Unix(epochSeconds, 0).UTC().Format("2006-01-02 15:04 UTC")
}
