package storage

import (
	"errors"
	"log"

	"privacyreport/backend/internal/models"

	"gorm.io/gorm"
)

// FindWindow resolves the token and loads the message window it is bound
// to. The schema permits several windows per report; the workflow only ever
// touches the one matching the token's message id.
func (s *Service) FindWindow(tok string) (*models.MessageWindow, error) {
	ctx, err := s.Codec.Resolve(tok)
	if err != nil {
		return nil, err
	}

	var window models.MessageWindow
	err = s.DB.
		Where("report_id = ? AND message_id = ?", ctx.ReportID, ctx.MessageID).
		First(&window).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to load message window for report %s: %v", ctx.ReportID, err)
		return nil, nil
	}
	return &window, nil
}

// MessagesForWindow returns the stored snapshot of a window, oldest first,
// with attachments preloaded. An empty result means the window has not been
// populated yet and the caller should fetch from Discord exactly once.
func (s *Service) MessagesForWindow(windowID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.DB.
		Preload("Attachments").
		Where("window_id = ?", windowID).
		Order("id asc").
		Find(&messages).Error
	if err != nil {
		log.Printf("ERROR: Failed to load messages for window %d: %v", windowID, err)
		return nil, err
	}
	return messages, nil
}

// InsertWindowMessages persists a freshly fetched, normalized message slice
// into a window. Attachments ride along on the association; the fetcher has
// already dropped everything that is not an image.
func (s *Service) InsertWindowMessages(windowID uint, messages []models.Message) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for i := range messages {
			messages[i].WindowID = windowID
			if err := tx.Create(&messages[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("ERROR: Failed to insert %d messages for window %d: %v", len(messages), windowID, err)
		return err
	}
	return nil
}

// ApplyRedactions overwrites stored message content with the reporter's
// edits, marks every attachment the reporter did not explicitly keep as
// redacted, and flips the window's redacted flag. The flag flip is the
// guard: it happens first, as a conditional update inside the transaction,
// so a second application (double click, webhook replay) finds zero rows
// and the whole call fails with ErrWindowAlreadyRedacted before any edit is
// re-applied. The flag never reverts to false.
func (s *Service) ApplyRedactions(windowID uint, edits []RedactedMessage) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.MessageWindow{}).
			Where("id = ? AND is_redacted = ?", windowID, false).
			Update("is_redacted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrWindowAlreadyRedacted
		}

		for _, edit := range edits {
			if err := tx.Model(&models.Message{}).
				Where("window_id = ? AND message_id = ?", windowID, edit.MessageID).
				Update("content", edit.Content).Error; err != nil {
				return err
			}

			if len(edit.Attachments) == 0 {
				continue
			}
			var stored models.Message
			if err := tx.
				Where("window_id = ? AND message_id = ?", windowID, edit.MessageID).
				First(&stored).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			for _, choice := range edit.Attachments {
				if err := tx.Model(&models.Attachment{}).
					Where("database_message_id = ? AND url = ?", stored.ID, choice.URL).
					Update("is_redacted", !choice.Selected).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrWindowAlreadyRedacted) {
			log.Printf("ERROR: Failed to apply redactions to window %d: %v", windowID, err)
		}
		return err
	}
	return nil
}
