package models

// Attachment is a media reference belonging to a snapshotted message. Only
// image attachments are ever persisted. DatabaseMessageID references the
// messages table primary key, not the Discord snowflake, since the same
// Discord message may be snapshotted into different windows and redacted
// differently in each.
type Attachment struct {
	ID                uint   `gorm:"primaryKey" json:"-"`
	DatabaseMessageID uint   `gorm:"not null;index" json:"-"`
	Filename          string `gorm:"type:text;not null" json:"filename"`
	URL               string `gorm:"type:text;not null" json:"url"`
	ContentType       string `gorm:"type:text;not null" json:"content_type"`
	Ephemeral         bool   `gorm:"default:false" json:"ephemeral"`
	// IsRedacted defaults the other way round at redaction time: an
	// attachment is redacted unless the reporter explicitly kept it.
	IsRedacted bool `gorm:"default:false" json:"is_redacted"`
}
