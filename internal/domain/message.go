package domain

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

var ErrInvalidMessageID = errors.New("invalid message id")

type Message struct {
	MessageID       string              `json:"messageId" dynamodbav:"messageId"`
	ChannelID       string              `json:"channelId" dynamodbav:"channelId"`
	Timestamp       int64               `json:"timestamp" dynamodbav:"timestamp"`
	UserID          string              `json:"userId" dynamodbav:"userId"`
	Username        string              `json:"username" dynamodbav:"username"`
	PhotoURL        string              `json:"photoURL,omitempty" dynamodbav:"photoURL,omitempty"`
	Content         string              `json:"content" dynamodbav:"content"`
	FileAttachment  *FileAttachment     `json:"fileAttachment,omitempty" dynamodbav:"fileAttachment,omitempty"`
	ParentMessageID string              `json:"parentMessageId,omitempty" dynamodbav:"parentMessageId,omitempty"`
	Reactions       map[string][]string `json:"reactions,omitempty" dynamodbav:"reactions,omitempty"`
	Version         int64               `json:"-" dynamodbav:"version"`
	// Derived, never stored
	ThreadMessageCount int `json:"threadMessageCount,omitempty" dynamodbav:"-"`
}

// MessageID derives the id of the message stored at channelID/timestamp.
func MessageID(channelID string, timestamp int64) string {
	return channelID + "#" + strconv.FormatInt(timestamp, 10)
}

// ParseMessageID splits a message id back into its channel and timestamp.
func ParseMessageID(id string) (channelID string, timestamp int64, err error) {
	i := strings.LastIndexByte(id, '#')
	if i <= 0 || i == len(id)-1 {
		return "", 0, ErrInvalidMessageID
	}
	ts, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil || ts <= 0 {
		return "", 0, ErrInvalidMessageID
	}
	return id[:i], ts, nil
}

func (m *Message) IsReply() bool {
	return m.ParentMessageID != ""
}

// ToggleReaction adds userID to emoji's list or removes it if already
// present. The input map is not modified; emojis left without users are
// dropped from the result.
func ToggleReaction(reactions map[string][]string, emoji, userID string) map[string][]string {
	out := make(map[string][]string, len(reactions)+1)
	for k, users := range reactions {
		out[k] = slices.Clone(users)
	}

	users := out[emoji]
	if i := slices.Index(users, userID); i >= 0 {
		users = slices.Delete(users, i, i+1)
	} else {
		users = append(users, userID)
	}

	if len(users) == 0 {
		delete(out, emoji)
	} else {
		out[emoji] = users
	}
	return out
}

// CountReplies fills ThreadMessageCount on parents present in msgs.
func CountReplies(msgs []Message) {
	counts := make(map[string]int)
	for _, m := range msgs {
		if m.IsReply() {
			counts[m.ParentMessageID]++
		}
	}
	for i := range msgs {
		msgs[i].ThreadMessageCount = counts[msgs[i].MessageID]
	}
}
