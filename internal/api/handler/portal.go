package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"privacyreport/backend/internal/config"
	"privacyreport/backend/internal/discord"
	"privacyreport/backend/internal/forms"
	"privacyreport/backend/internal/models"
	"privacyreport/backend/internal/storage"
	"privacyreport/backend/internal/workflow"

	"github.com/gin-gonic/gin"
)

// portalGate validates the magic token for a portal request and returns the
// report plus its message window. Expiry is measured against the report's
// creation time, so a stolen link goes stale on its own.
func (h *Handler) portalGate(c *gin.Context) (*models.Report, *models.MessageWindow, bool) {
	tok := c.Query("token")

	report, err := h.Storage.FindReport(tok)
	if err != nil || report == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid magic token"})
		return nil, nil, false
	}

	window, err := h.Storage.FindWindow(tok)
	if err != nil || window == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid magic token"})
		return nil, nil, false
	}

	if window.IsRedacted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The message window has already been redacted"})
		return nil, nil, false
	}

	age := time.Since(time.Unix(report.ReportingTimestamp, 0))
	if age > config.PortalTokenTTL {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The magic token has expired after 15 minutes"})
		return nil, nil, false
	}

	return report, window, true
}

// GetRedactReports serves the portal's view of a report: the report row plus
// the message window around the reported message. The window contents are
// fetched from Discord the first time the portal opens and snapshotted; later
// opens read the snapshot.
func (h *Handler) GetRedactReports(c *gin.Context) {
	report, window, ok := h.portalGate(c)
	if !ok {
		return
	}

	messages, err := h.Storage.MessagesForWindow(window.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message window"})
		return
	}

	if len(messages) == 0 {
		fetched, err := h.Discord.FetchMessages(window.ChannelID, window.MessageID, config.WindowFetchLimit, discord.DirectionAround)
		if err != nil {
			log.Printf("ERROR: Failed to fetch message window %d from Discord: %v", window.ID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch messages from Discord"})
			return
		}
		if err := h.Storage.InsertWindowMessages(window.ID, fetched); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message window"})
			return
		}
		messages, err = h.Storage.MessagesForWindow(window.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message window"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"report":         report,
		"message_window": window,
		"messages":       messages,
	})
}

type redactRequest struct {
	RedactedMessages []storage.RedactedMessage `json:"redactedMessages" binding:"required"`
}

// PostReportDiscord accepts the portal's redaction pass, marks the window
// redacted, and DMs the reporter the entry into the disclosure chain. When
// older reports against the same user exist, the DM offers to merge first.
func (h *Handler) PostReportDiscord(c *gin.Context) {
	tok := c.Query("token")

	report, window, ok := h.portalGate(c)
	if !ok {
		return
	}
	if report.Status == models.StatusClosed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The report has already been closed"})
		return
	}

	var req redactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed redaction payload"})
		return
	}

	if err := h.Storage.ApplyRedactions(window.ID, req.RedactedMessages); err != nil {
		if errors.Is(err, storage.ErrWindowAlreadyRedacted) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "The message window has already been redacted"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply redactions"})
		return
	}

	similars, err := h.Storage.FindSimilarReports(report.ReportedUserID, report.ReportingUserID)
	if err != nil {
		// Merge is an optimization; fall through to a fresh report.
		similars = nil
	}

	var content string
	var components []discord.Component
	if len(similars) > 0 {
		content, components = forms.MergePrompt(report, similars, workflow.CustomID(workflow.StepMergeReports, tok))
	} else {
		content, components = forms.StartReportMessage(workflow.CustomID(workflow.StepStartReport, tok))
	}

	if err := h.sendDM(report.ReportingUserID, content, components); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "redaction saved, but the follow-up message could not be delivered"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Redaction saved. Check your Discord DMs to continue the report."})
}
