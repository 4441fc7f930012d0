package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"privacyreport/backend/internal/models"
)

const defaultAPIBase = "https://discord.com/api/v10"

// Direction selects which side of the anchor a window fetch covers.
type Direction string

const (
	DirectionAround Direction = "around"
	DirectionBefore Direction = "before"
	DirectionAfter  Direction = "after"
)

// Client is a minimal bot-token REST client for the handful of Discord
// endpoints this service consumes.
type Client struct {
	AppID    string
	botToken string
	baseURL  string
	http     *http.Client
}

func NewClient(appID, botToken string) *Client {
	return &Client{
		AppID:    appID,
		botToken: botToken,
		baseURL:  defaultAPIBase,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBase is used by tests to point the client at a stub server.
func NewClientWithBase(appID, botToken, baseURL string) *Client {
	c := NewClient(appID, botToken)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

func (c *Client) do(method, endpoint string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord API %s %s: status %d: %s", method, endpoint, resp.StatusCode, string(data))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// wire shapes for /channels/{id}/messages reads.
type wireMessage struct {
	ID          string           `json:"id"`
	Content     string           `json:"content"`
	Timestamp   string           `json:"timestamp"`
	Author      User             `json:"author"`
	Attachments []wireAttachment `json:"attachments"`
}

type wireAttachment struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Ephemeral   bool   `json:"ephemeral"`
}

// FetchMessages pulls up to limit messages around (or strictly before or
// after) the anchor message and normalizes them into snapshot records,
// oldest first. Platform-internal fields are dropped, attachments are kept
// only when they are images, and the author avatar URL is derived from the
// author id and avatar hash.
func (c *Client) FetchMessages(channelID, anchorMessageID string, limit int, direction Direction) ([]models.Message, error) {
	if direction == "" {
		direction = DirectionAround
	}
	query := url.Values{}
	query.Set(string(direction), anchorMessageID)
	query.Set("limit", strconv.Itoa(limit))

	var raw []wireMessage
	endpoint := fmt.Sprintf("/channels/%s/messages?%s", channelID, query.Encode())
	if err := c.do(http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}

	// Discord returns newest first.
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].Timestamp < raw[j].Timestamp })

	messages := make([]models.Message, 0, len(raw))
	for _, m := range raw {
		msg := models.Message{
			MessageID:       m.ID,
			Content:         m.Content,
			Timestamp:       m.Timestamp,
			AuthorID:        m.Author.ID,
			AuthorUsername:  m.Author.Username,
			AuthorAvatarURL: AvatarURL(m.Author.ID, m.Author.Avatar),
			AuthorIsBot:     m.Author.Bot,
		}
		for _, a := range m.Attachments {
			if !strings.HasPrefix(a.ContentType, "image") {
				continue
			}
			msg.Attachments = append(msg.Attachments, models.Attachment{
				Filename:    a.Filename,
				URL:         a.URL,
				ContentType: a.ContentType,
				Ephemeral:   a.Ephemeral,
			})
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// AvatarURL derives the CDN avatar address from an author id and avatar
// hash. A missing hash yields an empty URL.
func AvatarURL(userID, avatarHash string) string {
	if avatarHash == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", userID, avatarHash)
}

// CreateDMChannel opens (or finds) the direct-message channel with a user
// and returns its id.
func (c *Client) CreateDMChannel(userID string) (string, error) {
	var channel struct {
		ID string `json:"id"`
	}
	body := map[string]string{"recipient_id": userID}
	if err := c.do(http.MethodPost, "/users/@me/channels", body, &channel); err != nil {
		return "", err
	}
	return channel.ID, nil
}

// SendChannelMessage posts content plus optional interactive components to
// a channel and returns the created message id.
func (c *Client) SendChannelMessage(channelID, content string, components []Component) (string, error) {
	body := map[string]any{"content": content}
	if len(components) > 0 {
		body["components"] = components
	}
	var created struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.do(http.MethodPost, endpoint, body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// DeleteInteractionMessage removes a previous interaction reply through the
// webhook follow-up endpoint. Best effort: failures are logged and never
// surfaced, the primary response has already been sent.
func (c *Client) DeleteInteractionMessage(interactionToken, messageID string) {
	endpoint := fmt.Sprintf("/webhooks/%s/%s/messages/%s", c.AppID, interactionToken, messageID)
	if err := c.do(http.MethodDelete, endpoint, nil, nil); err != nil {
		log.Printf("WARN: Failed to delete interaction message %s: %v", messageID, err)
	}
}

// InstallGlobalCommands bulk-overwrites the application's global commands.
func (c *Client) InstallGlobalCommands(commands []ApplicationCommand) error {
	endpoint := fmt.Sprintf("/applications/%s/commands", c.AppID)
	return c.do(http.MethodPut, endpoint, commands, nil)
}
