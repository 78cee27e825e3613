package ws

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/vedran77/teamchat/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeSyncUser          = "sync_user"
	EventTypeGetUsers          = "get_users"
	EventTypeGetMentionable    = "get_mentionable_users"
	EventTypeJoinChannel       = "join_channel"
	EventTypeLeaveChannel      = "leave_channel"
	EventTypeGetChannels       = "get_channels"
	EventTypeCreateChannel     = "create_channel"
	EventTypeDeleteChannel     = "delete_channel"
	EventTypeGetMessages       = "get_messages"
	EventTypeMessageWithFile   = "message_with_file"
	EventTypeAddReaction       = "add_reaction"
	EventTypeDeleteMessage     = "delete_message"
	EventTypeGetThreadMessages = "get_thread_messages"
	EventTypeCreateDMChannel   = "create_dm_channel"
	EventTypeGetDMChannels     = "get_dm_channels"
	EventTypeSearchMessages    = "search_messages"
	EventTypeSetPresence       = "set_presence"
	EventTypeGetPresence       = "get_presence"
	EventTypePing              = "ping"
)

// Event types - Server → Client. EventTypeMessage is used both ways.
const (
	EventTypeMessage          = "message"
	EventTypeUserSynced       = "user_synced"
	EventTypeUsers            = "users"
	EventTypeMentionableUsers = "mentionable_users"
	EventTypeChannels         = "channels"
	EventTypeChannelCreated   = "channel_created"
	EventTypeChannelDeleted   = "channel_deleted"
	EventTypeMessages         = "messages"
	EventTypeThreadUpdated    = "thread_updated"
	EventTypeReactionAdded    = "reaction_added"
	EventTypeMessageDeleted   = "message_deleted"
	EventTypeThreadMessages   = "thread_messages"
	EventTypeDMChannelCreated = "dm_channel_created"
	EventTypeDMChannels       = "dm_channels"
	EventTypeSearchResults    = "search_results"
	EventTypePresence         = "presence"
	EventTypePresenceList     = "presence_list"
	EventTypePong             = "pong"
	EventTypeError            = "error"
)

// Error codes carried by EventTypeError.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeForbidden      = "FORBIDDEN"
	CodeInvalidPayload = "INVALID_PAYLOAD"
	CodeValidation     = "VALIDATION_ERROR"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnknownEvent   = "UNKNOWN_EVENT"
	CodeInternal       = "INTERNAL"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	ChannelID string          `json:"channel_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type CreateChannelPayload struct {
	Name string `json:"name"`
}

type ReactionPayload struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type CreateDMPayload struct {
	OtherUserID string `json:"otherUserId"`
}

type SearchPayload struct {
	Query string `json:"query"`
}

type SetPresencePayload struct {
	Status string `json:"status"`
}

// --- Server → Client payloads ---

type MessagesPayload struct {
	ChannelID string           `json:"channelId"`
	Messages  []domain.Message `json:"messages"`
}

type ThreadPayload struct {
	ParentMessageID string           `json:"parentMessageId"`
	Messages        []domain.Message `json:"messages"`
}

type ReactionsPayload struct {
	MessageID string              `json:"messageId"`
	Reactions map[string][]string `json:"reactions"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

type ChannelDeletedPayload struct {
	ChannelID string `json:"channelId"`
}

type SearchResultsPayload struct {
	Query    string           `json:"query"`
	Messages []domain.Message `json:"messages"`
}

type ErrorPayload struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Event   string            `json:"event,omitempty"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType, channelID string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		ChannelID: channelID,
		Payload:   data,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// decode unmarshals the payload into v; an absent payload leaves v zero.
func (e *Event) decode(v any) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}

// idArg resolves an id given as the envelope channel_id, a bare JSON string
// payload, or the named field of an object payload.
func (e *Event) idArg(field string) (string, error) {
	if field == "channelId" && e.ChannelID != "" {
		return e.ChannelID, nil
	}
	if len(e.Payload) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(e.Payload, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(e.Payload, &obj); err != nil {
		return "", err
	}
	raw, ok := obj[field]
	if !ok {
		return "", nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}
