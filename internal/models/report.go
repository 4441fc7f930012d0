package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Report statuses. Transitions only move forward: a report is opened by the
// reporting command, submitted by the user at the end of the disclosure
// chain, and moved to pending/closed by moderators. The one exception is a
// merge, which deletes the source report row outright.
const (
	StatusOpen      = "open"
	StatusSubmitted = "submitted"
	StatusPending   = "pending"
	StatusClosed    = "closed"
)

// Report represents one moderation complaint filed by a user against the
// author of a message. Exactly one reported user and one reporting user per
// report; disclosure fields stay NULL until the corresponding workflow step
// writes them.
type Report struct {
	ID string `gorm:"primaryKey" json:"id"`
	// ReportedUserID is the author of the reported message. A report can own
	// several message windows after merges, but only ever one reported user.
	ReportedUserID  string `gorm:"type:text;not null;index:idx_report_pair" json:"reported_user_id"`
	ReportingUserID string `gorm:"type:text;not null;index:idx_report_pair" json:"reporting_user_id"`
	// ReportingTimestamp is the report creation time in epoch seconds. The
	// portal redaction gate expires relative to this value.
	ReportingTimestamp int64 `gorm:"not null" json:"reporting_timestamp"`

	ForWhom     pq.StringArray `gorm:"type:text[]" json:"report_for_whom"`
	ToWhom      string         `gorm:"type:text" json:"report_to_whom"`
	Reason      string         `gorm:"type:text" json:"report_reason"`
	ContextNote string         `gorm:"type:text" json:"report_context"`
	Details     string         `gorm:"type:text" json:"report_details"`
	Outcome     string         `gorm:"type:text" json:"report_outcome"`

	Status string `gorm:"type:text;not null;index" json:"reporting_status"`
}

// BeforeCreate generates the report ID when the caller has not set one.
func (r *Report) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}
