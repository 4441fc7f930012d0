// Package discord is the chat-platform collaborator: wire types for the
// interactions webhook, a small REST client for the bot-token API, and the
// request signature check. Nothing in here knows about reports; it moves
// payloads and normalizes messages.
package discord

// Interaction types delivered to the webhook endpoint.
const (
	InteractionPing               = 1
	InteractionApplicationCommand = 2
	InteractionMessageComponent   = 3
	InteractionModalSubmit        = 5
)

// Interaction response types.
const (
	ResponsePong           = 1
	ResponseChannelMessage = 4
	ResponseModal          = 9
)

// Component types.
const (
	ComponentActionRow    = 1
	ComponentButton       = 2
	ComponentStringSelect = 3
	ComponentTextInput    = 4
)

// Button styles.
const (
	ButtonPrimary = 1
	ButtonLink    = 5
)

// TextInputParagraph is the multi-line style for modal text inputs.
const TextInputParagraph = 2

// Command types: slash command and message context-menu command.
const (
	CommandChatInput = 1
	CommandMessage   = 3
)

// CommandOptionInteger is the integer option type for slash commands.
const CommandOptionInteger = 4

// Interaction is the inbound webhook payload. The framework collaborator
// has already verified the request signature by the time this is decoded.
type Interaction struct {
	ID    string          `json:"id"`
	Type  int             `json:"type"`
	Token string          `json:"token"`
	Data  InteractionData `json:"data"`
	// Member is set for guild interactions, User for DM interactions.
	Member  *Member     `json:"member,omitempty"`
	User    *User       `json:"user,omitempty"`
	Message *MessageRef `json:"message,omitempty"`
}

// UserID returns the acting user regardless of guild/DM origin.
func (i *Interaction) UserID() string {
	if i.Member != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

type InteractionData struct {
	Name       string          `json:"name,omitempty"`
	CustomID   string          `json:"custom_id,omitempty"`
	Values     []string        `json:"values,omitempty"`
	Options    []CommandOption `json:"options,omitempty"`
	Components []Component     `json:"components,omitempty"`
	Resolved   *Resolved       `json:"resolved,omitempty"`
}

// ModalValue digs the submitted text out of a modal's single input row.
func (d *InteractionData) ModalValue() string {
	for _, row := range d.Components {
		for _, c := range row.Components {
			if c.Type == ComponentTextInput {
				return c.Value
			}
		}
	}
	return ""
}

type CommandOption struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type Resolved struct {
	Messages map[string]ResolvedMessage `json:"messages,omitempty"`
}

type ResolvedMessage struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Author    User   `json:"author"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Bot      bool   `json:"bot"`
}

type Member struct {
	User User `json:"user"`
}

// MessageRef identifies the message a component interaction came from; it
// is what gets deleted when the next prompt replaces it.
type MessageRef struct {
	ID string `json:"id"`
}

// InteractionResponse is the synchronous webhook reply.
type InteractionResponse struct {
	Type int           `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

type ResponseData struct {
	Content    string      `json:"content,omitempty"`
	Components []Component `json:"components,omitempty"`
	// Title and CustomID are set for modal responses.
	Title    string `json:"title,omitempty"`
	CustomID string `json:"custom_id,omitempty"`
}

// Component is the one shape Discord uses for action rows, buttons, selects
// and text inputs; which fields apply depends on Type.
type Component struct {
	Type        int            `json:"type"`
	CustomID    string         `json:"custom_id,omitempty"`
	Label       string         `json:"label,omitempty"`
	Style       int            `json:"style,omitempty"`
	URL         string         `json:"url,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Options     []SelectOption `json:"options,omitempty"`
	MaxValues   int            `json:"max_values,omitempty"`
	MaxLength   int            `json:"max_length,omitempty"`
	Required    *bool          `json:"required,omitempty"`
	Value       string         `json:"value,omitempty"`
	Components  []Component    `json:"components,omitempty"`
}

type SelectOption struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// ActionRow wraps components in the required outer row.
func ActionRow(components ...Component) []Component {
	return []Component{{
		Type:       ComponentActionRow,
		Components: components,
	}}
}

// ApplicationCommand is the registration payload for cmd/register.
type ApplicationCommand struct {
	Name         string                     `json:"name"`
	Description  string                     `json:"description,omitempty"`
	Type         int                        `json:"type"`
	DMPermission bool                       `json:"dm_permission,omitempty"`
	Options      []ApplicationCommandOption `json:"options,omitempty"`
}

type ApplicationCommandOption struct {
	Type        int    `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	MinValue    int    `json:"min_value,omitempty"`
	MaxValue    int    `json:"max_value,omitempty"`
}
