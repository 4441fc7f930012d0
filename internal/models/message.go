package models

// Message is a denormalized snapshot of one Discord message belonging to a
// window. Author fields are copied at fetch time so the stored window stays
// stable even if the live message is later edited or deleted. Content is
// mutable only through redaction, before the owning window is marked
// redacted.
type Message struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	WindowID uint   `gorm:"not null;index" json:"-"`
	// MessageID is the Discord snowflake of the snapshotted message.
	MessageID string `gorm:"type:text;not null" json:"message_id"`
	Content   string `gorm:"type:text" json:"content"`
	// Timestamp is the original send time as reported by Discord.
	Timestamp string `gorm:"type:text" json:"timestamp"`

	AuthorID        string `gorm:"type:text;not null" json:"author_id"`
	AuthorUsername  string `gorm:"type:text;not null" json:"author_username"`
	AuthorAvatarURL string `gorm:"type:text" json:"author_avatar_url"`
	AuthorIsBot     bool   `gorm:"default:false" json:"author_is_bot"`

	Attachments []Attachment `gorm:"foreignKey:DatabaseMessageID" json:"attachments"`
}
