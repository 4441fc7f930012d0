package models

import "gorm.io/gorm"

// MessageWindow is a contiguous slice of channel history centered on the
// reported message, scoped to one report. The embedded gorm.Model provides
// ID and CreatedAt; windows are created once and never deleted, only
// reassigned to another report during a merge.
type MessageWindow struct {
	gorm.Model

	ReportID string `gorm:"type:text;not null;index" json:"report_id"`
	// MessageID is the center of the window: the message that was reported.
	MessageID string `gorm:"type:text;not null" json:"message_id"`
	ChannelID string `gorm:"type:text;not null" json:"channel_id"`
	// IsRedacted flips to true exactly once, when the reporter finishes the
	// portal redaction pass. It never reverts.
	IsRedacted bool `gorm:"default:false" json:"is_redacted"`
}
