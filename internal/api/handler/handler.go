// Package handler wires the HTTP surface: the Discord interactions webhook,
// the web portal's redaction endpoints, and the moderator review surface.
package handler

import (
	"log"

	"privacyreport/backend/internal/config"
	"privacyreport/backend/internal/discord"
	"privacyreport/backend/internal/models"
	"privacyreport/backend/internal/reviewhub"
	"privacyreport/backend/internal/storage"
	"privacyreport/backend/internal/token"
	"privacyreport/backend/internal/workflow"
)

// DiscordAPI is the slice of the Discord client the handlers consume.
// Narrowed to an interface so tests can substitute a double.
type DiscordAPI interface {
	FetchMessages(channelID, anchorMessageID string, limit int, direction discord.Direction) ([]models.Message, error)
	CreateDMChannel(userID string) (string, error)
	SendChannelMessage(channelID, content string, components []discord.Component) (string, error)
	DeleteInteractionMessage(interactionToken, messageID string)
}

type Handler struct {
	Storage storage.Storage
	Discord DiscordAPI
	Engine  *workflow.Engine
	Hub     *reviewhub.Hub
	Codec   *token.Codec
	Cfg     *config.Config
}

func NewHandler(s storage.Storage, d DiscordAPI, e *workflow.Engine, hub *reviewhub.Hub, codec *token.Codec, cfg *config.Config) *Handler {
	return &Handler{
		Storage: s,
		Discord: d,
		Engine:  e,
		Hub:     hub,
		Codec:   codec,
		Cfg:     cfg,
	}
}

// sendDM delivers content plus components to a user's DM channel, reusing
// the cached channel id when one is known.
func (h *Handler) sendDM(userID, content string, components []discord.Component) error {
	channelID, err := h.Storage.CachedDMChannel(userID)
	if err != nil {
		log.Printf("WARN: DM channel cache lookup failed for user %s: %v", userID, err)
	}
	if channelID == "" {
		channelID, err = h.Discord.CreateDMChannel(userID)
		if err != nil {
			log.Printf("ERROR: Failed to open DM channel with user %s: %v", userID, err)
			return err
		}
		if err := h.Storage.SaveDMChannel(userID, channelID); err != nil {
			log.Printf("WARN: Failed to cache DM channel for user %s: %v", userID, err)
		}
	}

	if _, err := h.Discord.SendChannelMessage(channelID, content, components); err != nil {
		log.Printf("ERROR: Failed to send DM to user %s: %v", userID, err)
		return err
	}
	return nil
}
