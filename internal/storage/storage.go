// Package storage persists reports, message windows, message snapshots and
// attachments in PostgreSQL, with Redis carrying the short-lived request
// bookkeeping (interaction replay detection, DM channel cache). Every lookup
// is keyed by identifiers decoded from a magic token, never by in-memory
// state; the service holds nothing between requests.
package storage

import (
	"context"
	"errors"
	"log"

	"privacyreport/backend/internal/models"
	"privacyreport/backend/internal/token"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Guard violations. These are surfaced to the caller and never retried; each
// is produced by a single conditional UPDATE so that two racing requests
// cannot both pass the check.
var (
	ErrWindowAlreadyRedacted  = errors.New("message window already redacted")
	ErrReportClosed           = errors.New("report already closed")
	ErrMergeTargetUnavailable = errors.New("merge target not eligible")
	ErrUnknownField           = errors.New("field not in the report whitelist")
)

// Field names the report columns the workflow engine may write. The set is
// closed: UpdateReportField refuses anything else, so no step can ever turn
// user input into a column name.
type Field string

const (
	FieldForWhom     Field = "for_whom"
	FieldToWhom      Field = "to_whom"
	FieldReason      Field = "reason"
	FieldContextNote Field = "context_note"
	FieldDetails     Field = "details"
	FieldOutcome     Field = "outcome"
)

var fieldColumns = map[Field]string{
	FieldForWhom:     "for_whom",
	FieldToWhom:      "to_whom",
	FieldReason:      "reason",
	FieldContextNote: "context_note",
	FieldDetails:     "details",
	FieldOutcome:     "outcome",
}

// RedactedMessage carries one message's portal edit: replacement content and
// the reporter's keep/redact choice per attachment.
type RedactedMessage struct {
	MessageID   string             `json:"message_id"`
	Content     string             `json:"content"`
	Attachments []AttachmentChoice `json:"attachments"`
}

// AttachmentChoice marks whether the reporter chose to keep an attachment.
// Unselected attachments are redacted; redaction is the default.
type AttachmentChoice struct {
	URL      string `json:"url"`
	Selected bool   `json:"selected"`
}

type Storage interface {
	CreateReport(reportedUserID, reportingUserID string, ts int64, anchorMessageID, channelID string) (string, error)
	FindReport(tok string) (*models.Report, error)
	FindReportByID(reportID string) (*models.Report, error)
	FindSimilarReports(reportedUserID, reportingUserID string) ([]models.Report, error)
	MergeInto(sourceToken, targetReportID string) (string, error)
	UpdateReportField(tok string, field Field, value interface{}) error
	SubmitReport(reportID string) error
	SetReportStatus(reportID, status string) error
	ReportsByReportingUser(userID string, limit int) ([]models.Report, error)
	ReportsByStatus(status string) ([]models.Report, error)

	FindWindow(tok string) (*models.MessageWindow, error)
	MessagesForWindow(windowID uint) ([]models.Message, error)
	InsertWindowMessages(windowID uint, messages []models.Message) error
	ApplyRedactions(windowID uint, edits []RedactedMessage) error

	ClaimInteraction(interactionID string) (bool, error)
	ReleaseInteraction(interactionID string) error
	CachedDMChannel(userID string) (string, error)
	SaveDMChannel(userID, channelID string) error
}

// Service is the PostgreSQL+Redis implementation of Storage.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Codec *token.Codec
	Ctx   context.Context
}

func NewStorageService(db *gorm.DB, rdb *redis.Client, codec *token.Codec) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Codec: codec,
		Ctx:   context.Background(),
	}
}

// CreateReport inserts a report with status "open" and its first message
// window in one transaction, and returns the new report id.
func (s *Service) CreateReport(reportedUserID, reportingUserID string, ts int64, anchorMessageID, channelID string) (string, error) {
	report := models.Report{
		ReportedUserID:     reportedUserID,
		ReportingUserID:    reportingUserID,
		ReportingTimestamp: ts,
		Status:             models.StatusOpen,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&report).Error; err != nil {
			return err
		}
		window := models.MessageWindow{
			ReportID:  report.ID,
			MessageID: anchorMessageID,
			ChannelID: channelID,
		}
		return tx.Create(&window).Error
	})
	if err != nil {
		log.Printf("ERROR: Failed to create report for reported user %s: %v", reportedUserID, err)
		return "", err
	}

	log.Printf("INFO: New report %s created (reported %s, reporting %s)", report.ID, reportedUserID, reportingUserID)
	return report.ID, nil
}

// FindReport resolves the token and loads the referenced report. An
// unresolvable token is rejected with token.ErrInvalidToken; a missing or
// unreadable row comes back as (nil, nil) with the cause logged, and callers
// treat "no report" as a failed request either way.
func (s *Service) FindReport(tok string) (*models.Report, error) {
	ctx, err := s.Codec.Resolve(tok)
	if err != nil {
		return nil, err
	}
	return s.FindReportByID(ctx.ReportID)
}

// FindReportByID loads one report by primary key, (nil, nil) when absent.
func (s *Service) FindReportByID(reportID string) (*models.Report, error) {
	var report models.Report
	err := s.DB.Where("id = ?", reportID).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to load report %s: %v", reportID, err)
		return nil, nil
	}
	return &report, nil
}

// FindSimilarReports returns merge candidates between the same pair of
// users: everything except closed reports and the just-opened one, newest
// first.
func (s *Service) FindSimilarReports(reportedUserID, reportingUserID string) ([]models.Report, error) {
	var reports []models.Report
	err := s.DB.
		Where("reported_user_id = ? AND reporting_user_id = ?", reportedUserID, reportingUserID).
		Where("status NOT IN ?", []string{models.StatusClosed, models.StatusOpen}).
		Order("reporting_timestamp desc").
		Find(&reports).Error
	if err != nil {
		log.Printf("ERROR: Failed to find similar reports for pair (%s, %s): %v", reportedUserID, reportingUserID, err)
		return nil, err
	}
	return reports, nil
}

// MergeInto folds the report referenced by sourceToken into targetReportID:
// the source's message window is reassigned to the target and the source
// report row is deleted, atomically, so a failure can never strand a window
// on a deleted report. The target is re-checked inside the transaction: the
// select value comes from the client and the candidate may have been closed
// after the merge prompt was built, so a target that is missing, closed,
// still open, or the source itself fails the whole merge with
// ErrMergeTargetUnavailable before anything moves. Returns a fresh token
// bound to the target.
func (s *Service) MergeInto(sourceToken, targetReportID string) (string, error) {
	ctx, err := s.Codec.Resolve(sourceToken)
	if err != nil {
		return "", err
	}
	if targetReportID == ctx.ReportID {
		return "", ErrMergeTargetUnavailable
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var target models.Report
		err := tx.
			Where("id = ? AND status NOT IN ?", targetReportID, []string{models.StatusClosed, models.StatusOpen}).
			First(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMergeTargetUnavailable
		}
		if err != nil {
			return err
		}

		res := tx.Model(&models.MessageWindow{}).
			Where("report_id = ? AND message_id = ?", ctx.ReportID, ctx.MessageID).
			Update("report_id", targetReportID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", ctx.ReportID).Delete(&models.Report{}).Error
	})
	if err != nil {
		if !errors.Is(err, ErrMergeTargetUnavailable) {
			log.Printf("ERROR: Failed to merge report %s into %s: %v", ctx.ReportID, targetReportID, err)
		}
		return "", err
	}

	log.Printf("INFO: Report %s merged into %s", ctx.ReportID, targetReportID)
	return s.Codec.Issue(token.Context{MessageID: ctx.MessageID, ReportID: targetReportID}), nil
}

// UpdateReportField writes a single whitelisted column on the report the
// token resolves to. The field name comes from the workflow engine's closed
// set, never from user input.
func (s *Service) UpdateReportField(tok string, field Field, value interface{}) error {
	column, ok := fieldColumns[field]
	if !ok {
		return ErrUnknownField
	}
	ctx, err := s.Codec.Resolve(tok)
	if err != nil {
		return err
	}

	if values, ok := value.([]string); ok {
		value = pq.StringArray(values)
	}

	err = s.DB.Model(&models.Report{}).
		Where("id = ?", ctx.ReportID).
		Update(column, value).Error
	if err != nil {
		log.Printf("ERROR: Failed to update report %s field %s: %v", ctx.ReportID, column, err)
		return err
	}
	return nil
}

// SubmitReport moves a report to "submitted" in one conditional update. A
// closed report refuses the transition; racing submissions collapse to one
// winner. Pending reports may return to submitted: a merge can land a new
// window on a pending report, and submitting it puts it back in front of
// the moderators.
func (s *Service) SubmitReport(reportID string) error {
	res := s.DB.Model(&models.Report{}).
		Where("id = ? AND status <> ?", reportID, models.StatusClosed).
		Update("status", models.StatusSubmitted)
	if res.Error != nil {
		log.Printf("ERROR: Failed to submit report %s: %v", reportID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReportClosed
	}
	return nil
}

// SetReportStatus is the moderator-side transition (submitted -> pending ->
// closed). Backward transitions are refused by the same mark-and-check shape
// as SubmitReport.
func (s *Service) SetReportStatus(reportID, status string) error {
	forward := map[string][]string{
		models.StatusPending: {models.StatusSubmitted},
		models.StatusClosed:  {models.StatusSubmitted, models.StatusPending},
	}
	from, ok := forward[status]
	if !ok {
		return ErrUnknownField
	}

	res := s.DB.Model(&models.Report{}).
		Where("id = ? AND status IN ?", reportID, from).
		Update("status", status)
	if res.Error != nil {
		log.Printf("ERROR: Failed to set report %s status to %s: %v", reportID, status, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReportClosed
	}
	return nil
}

// ReportsByReportingUser returns the reporter's most recent reports for the
// /myreports surface.
func (s *Service) ReportsByReportingUser(userID string, limit int) ([]models.Report, error) {
	var reports []models.Report
	err := s.DB.
		Where("reporting_user_id = ?", userID).
		Order("reporting_timestamp desc").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		log.Printf("ERROR: Failed to load reports for user %s: %v", userID, err)
		return nil, err
	}
	return reports, nil
}

// ReportsByStatus lists reports in one status, newest first. Used by the
// moderator review surface and the admin CLI.
func (s *Service) ReportsByStatus(status string) ([]models.Report, error) {
	var reports []models.Report
	err := s.DB.
		Where("status = ?", status).
		Order("reporting_timestamp desc").
		Find(&reports).Error
	if err != nil {
		log.Printf("ERROR: Failed to load %s reports: %v", status, err)
		return nil, err
	}
	return reports, nil
}
