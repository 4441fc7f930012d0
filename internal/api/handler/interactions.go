package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"privacyreport/backend/internal/config"
	"privacyreport/backend/internal/discord"
	"privacyreport/backend/internal/forms"
	"privacyreport/backend/internal/storage"
	"privacyreport/backend/internal/token"
	"privacyreport/backend/internal/workflow"

	"github.com/gin-gonic/gin"
)

// Command names as registered by cmd/register.
const (
	CommandPrivacyReporting = "PrivacyReporting"
	CommandMyReports        = "myreports"
)

// HandleInteractions is the webhook endpoint Discord delivers every
// interaction to. The signature middleware has already verified the
// request.
func (h *Handler) HandleInteractions(c *gin.Context) {
	var interaction discord.Interaction
	if err := c.ShouldBindJSON(&interaction); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed interaction payload"})
		return
	}

	if interaction.Type == discord.InteractionPing {
		c.JSON(http.StatusOK, discord.InteractionResponse{Type: discord.ResponsePong})
		return
	}

	// Discord retries deliveries and users double-click; the first claim on
	// an interaction id wins, the rest are dropped.
	claimed, err := h.Storage.ClaimInteraction(interaction.ID)
	if err != nil {
		log.Printf("WARN: Interaction dedup unavailable, proceeding without it: %v", err)
	} else if !claimed {
		log.Printf("INFO: Dropping replayed interaction %s", interaction.ID)
		c.JSON(http.StatusOK, discord.InteractionResponse{
			Type: discord.ResponseChannelMessage,
			Data: &discord.ResponseData{Content: "This action was already handled."},
		})
		return
	}

	switch interaction.Type {
	case discord.InteractionApplicationCommand:
		h.handleCommand(c, &interaction)
	case discord.InteractionMessageComponent, discord.InteractionModalSubmit:
		h.handleStep(c, &interaction)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported interaction type"})
	}
}

func (h *Handler) handleCommand(c *gin.Context, interaction *discord.Interaction) {
	switch interaction.Data.Name {
	case CommandPrivacyReporting:
		h.handleReportCommand(c, interaction)
	case CommandMyReports:
		h.handleMyReportsCommand(c, interaction)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown command"})
	}
}

// handleReportCommand creates the report and its message window from the
// message the command was invoked on, and replies with the portal magic
// link.
func (h *Handler) handleReportCommand(c *gin.Context, interaction *discord.Interaction) {
	data := interaction.Data
	if data.Resolved == nil || len(data.Resolved.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no message resolved for report command"})
		return
	}

	var reported discord.ResolvedMessage
	var messageID string
	for id, msg := range data.Resolved.Messages {
		messageID, reported = id, msg
		break
	}

	reportingUserID := interaction.UserID()
	reportID, err := h.Storage.CreateReport(
		reported.Author.ID,
		reportingUserID,
		time.Now().Unix(),
		messageID,
		reported.ChannelID,
	)
	if err != nil {
		h.respondGenericFailure(c, interaction)
		return
	}

	tok := h.Codec.Issue(token.Context{MessageID: messageID, ReportID: reportID})
	magicLink := fmt.Sprintf("%s?token=%s", h.Cfg.PortalBaseURL, tok)
	content, components := forms.MagicLinkMessage(magicLink)

	c.JSON(http.StatusOK, discord.InteractionResponse{
		Type: discord.ResponseChannelMessage,
		Data: &discord.ResponseData{Content: content, Components: components},
	})
}

// handleMyReportsCommand lists the reporter's latest reports.
func (h *Handler) handleMyReportsCommand(c *gin.Context, interaction *discord.Interaction) {
	limit := config.MyReportsDefault
	for _, option := range interaction.Data.Options {
		if option.Name != "number" {
			continue
		}
		if n, ok := option.Value.(float64); ok && int(n) > 0 {
			limit = int(n)
		}
	}
	if limit > config.MyReportsMax {
		limit = config.MyReportsMax
	}

	reports, err := h.Storage.ReportsByReportingUser(interaction.UserID(), limit)
	if err != nil {
		h.respondGenericFailure(c, interaction)
		return
	}

	content := "### :clipboard: Your latest reports\n\n"
	if len(reports) == 0 {
		content += "You have not filed any reports yet."
	} else {
		lines := make([]string, 0, len(reports))
		for i := range reports {
			lines = append(lines, forms.ReportSummaryLine(&reports[i]))
		}
		content += strings.Join(lines, "\n")
	}

	c.JSON(http.StatusOK, discord.InteractionResponse{
		Type: discord.ResponseChannelMessage,
		Data: &discord.ResponseData{Content: content},
	})
}

// handleStep routes a component click or modal submission into the
// workflow engine and replies with the next prompt. The previous ephemeral
// prompt is deleted best-effort after the response is on its way.
func (h *Handler) handleStep(c *gin.Context, interaction *discord.Interaction) {
	step, tok, err := workflow.ParseCustomID(interaction.Data.CustomID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown interaction"})
		return
	}

	values := interaction.Data.Values
	if interaction.Type == discord.InteractionModalSubmit {
		values = []string{interaction.Data.ModalValue()}
	}

	result, err := h.Engine.Transition(step, tok, values)
	if err != nil {
		h.respondStepError(c, interaction, err)
		return
	}

	if step == workflow.StepSubmit {
		if report, findErr := h.Storage.FindReport(result.Token); findErr == nil && report != nil {
			h.Hub.Notify(*report)
		}
	}

	c.JSON(http.StatusOK, result.Response)

	if interaction.Type == discord.InteractionMessageComponent && interaction.Message != nil {
		go h.Discord.DeleteInteractionMessage(interaction.Token, interaction.Message.ID)
	}
}

func (h *Handler) respondStepError(c *gin.Context, interaction *discord.Interaction, err error) {
	switch {
	case errors.Is(err, token.ErrInvalidToken), errors.Is(err, workflow.ErrReportNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid magic token"})
	case errors.Is(err, workflow.ErrWindowNotRedacted):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The message window has not been redacted yet"})
	case errors.Is(err, storage.ErrWindowAlreadyRedacted):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The message window has already been redacted"})
	case errors.Is(err, storage.ErrReportClosed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The report has already been closed"})
	case errors.Is(err, storage.ErrMergeTargetUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The selected report can no longer be merged"})
	case errors.Is(err, workflow.ErrInvalidStep):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown interaction"})
	case errors.Is(err, forms.ErrIncompleteReport):
		// Invariant violation: a step ran ahead of its prerequisites. Log
		// as a defect, keep the request alive with a generic failure.
		log.Printf("ERROR: Incomplete report during step rendering: %v", err)
		h.respondGenericFailure(c, interaction)
	default:
		log.Printf("ERROR: Workflow step failed: %v", err)
		h.respondGenericFailure(c, interaction)
	}
}

// respondGenericFailure answers a transient failure and releases the dedup
// claim: nothing was applied, so the platform's retry of this delivery must
// be processed rather than dropped as a replay. Guard violations keep their
// claim, a retry of those is deterministic.
func (h *Handler) respondGenericFailure(c *gin.Context, interaction *discord.Interaction) {
	if err := h.Storage.ReleaseInteraction(interaction.ID); err != nil {
		log.Printf("WARN: Failed to release interaction claim %s: %v", interaction.ID, err)
	}
	c.JSON(http.StatusOK, discord.InteractionResponse{
		Type: discord.ResponseChannelMessage,
		Data: &discord.ResponseData{Content: "Something went wrong while processing your report. Please try again later."},
	})
}
