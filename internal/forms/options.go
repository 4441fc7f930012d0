// Package forms owns the presentation side of the disclosure workflow: the
// selectable option catalogs, the interactive prompt for each step, and the
// rendering of a report's collected fields into review text.
package forms

import "privacyreport/backend/internal/discord"

// ForWhomOptions — who the report is filed on behalf of. Multi-select.
var ForWhomOptions = []discord.SelectOption{
	{
		Label: "Myself",
		Value: "Myself",
	},
	{
		Label: "Someone else",
		Value: "Someone else",
	},
	{
		Label:       "A Specific Group of People",
		Value:       "A specific group of people",
		Description: "This message is directed at or mentions a group of people--like racial or religious people",
	},
	{
		Label:       "Everyone on the server",
		Value:       "Everyone on the server",
		Description: "This message affects everyone on the server",
	},
}

// ReasonOptions — what the reported user did.
var ReasonOptions = []discord.SelectOption{
	{
		Label:       "Attacked with hate",
		Value:       "Attacked with hate",
		Description: "Slurs, racial stereotypes, group harassment, unwanted violence or hateful imagery",
	},
	{
		Label:       "Harassed or intimidated with violence",
		Value:       "Harassed or intimidated with violence",
		Description: "Sexual harassment, insults or name calling, posting private info, violent threats",
	},
	{
		Label:       "Spammed",
		Value:       "Spammed",
		Description: "Posting malicious links, fake engagement, repetitive messages",
	},
	{
		Label: "Shown content related to or encouraged to self-harm",
		Value: "Self harm",
	},
	{
		Label:       "Shown sensitive or disturbing content",
		Value:       "Shown sensitive or disturbing content",
		Description: "Consensual nudity and sexual acts, non-consensual nudity, graphic violence",
	},
}

// ToWhomOptions — which moderator group receives the report.
var ToWhomOptions = []discord.SelectOption{
	{
		Label: "The server moderators",
		Value: "Server moderators",
	},
	{
		Label: "The platform moderators",
		Value: "Platform moderators",
	},
}

// ContextOptions — whether the redacted message window travels with the
// report.
var ContextOptions = []discord.SelectOption{
	{
		Label:       "Include the surrounding messages",
		Value:       "With conversation context",
		Description: "Moderators see the redacted message window around the reported message",
	},
	{
		Label:       "Only the reported message",
		Value:       "Reported message only",
		Description: "Moderators see just the reported message as you redacted it",
	},
}

// OutcomeOptions — what the reporter wants to happen.
var OutcomeOptions = []discord.SelectOption{
	{
		Label: "Warn the user",
		Value: "Warn the user",
	},
	{
		Label: "Remove the message",
		Value: "Remove the message",
	},
	{
		Label:       "Remove the user from the server",
		Value:       "Remove the user from the server",
		Description: "Ask the moderators to kick or ban this user",
	},
	{
		Label: "I just want it on record",
		Value: "On record only",
	},
}

func optionLabel(options []discord.SelectOption, value string) string {
	for _, option := range options {
		if option.Value == value {
			return option.Label
		}
	}
	// Unknown values (e.g. catalog changed between deployments) fall back
	// to the stored value rather than failing the render.
	return value
}
