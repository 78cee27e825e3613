package validator

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/vedran77/teamchat/internal/domain"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

const (
	maxChannelName  = 80
	maxMessageLen   = 4000
	maxEmojiLen     = 32
	maxQueryLen     = 200
	maxDisplayName  = 100
	maxFileNameLen  = 255
	maxSpeechLength = 4096
)

func ValidateSyncUser(email, displayName string) ValidationErrors {
	errs := make(ValidationErrors)

	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			errs.Add("email", "Invalid email address")
		}
	}

	if utf8.RuneCountInString(strings.TrimSpace(displayName)) > maxDisplayName {
		errs.Add("displayName", "Display name is too long")
	}

	return errs
}

func ValidateChannel(name string) ValidationErrors {
	errs := make(ValidationErrors)

	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "Channel name is required")
	} else if utf8.RuneCountInString(name) > maxChannelName {
		errs.Add("name", "Channel name is too long")
	} else if strings.HasPrefix(name, domain.DMChannelPrefix) {
		errs.Add("name", "Channel name cannot start with "+domain.DMChannelPrefix)
	}

	return errs
}

func ValidateMessage(channelID, content string, hasFile bool) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(channelID) == "" {
		errs.Add("channelId", "Channel is required")
	}

	content = strings.TrimSpace(content)
	if content == "" && !hasFile {
		errs.Add("content", "Message content or a file is required")
	} else if utf8.RuneCountInString(content) > maxMessageLen {
		errs.Add("content", "Message is too long")
	}

	return errs
}

func ValidateAttachment(fileName, fileType, s3Key string, fileSize, maxSize int64) ValidationErrors {
	errs := make(ValidationErrors)

	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		errs.Add("fileName", "File name is required")
	} else if len(fileName) > maxFileNameLen {
		errs.Add("fileName", "File name is too long")
	}

	if strings.TrimSpace(fileType) == "" {
		errs.Add("fileType", "File type is required")
	}

	if fileSize <= 0 {
		errs.Add("fileSize", "File size must be positive")
	} else if maxSize > 0 && fileSize > maxSize {
		errs.Add("fileSize", "File is too large")
	}

	if s3Key != "" && !strings.HasPrefix(s3Key, "uploads/") {
		errs.Add("s3Key", "Invalid file key")
	}

	return errs
}

func ValidateReaction(messageID, emoji string) ValidationErrors {
	errs := make(ValidationErrors)

	if _, _, err := domain.ParseMessageID(messageID); err != nil {
		errs.Add("messageId", "Invalid message id")
	}

	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		errs.Add("emoji", "Emoji is required")
	} else if len(emoji) > maxEmojiLen {
		errs.Add("emoji", "Emoji is too long")
	}

	return errs
}

func ValidateSearch(query string) ValidationErrors {
	errs := make(ValidationErrors)

	query = strings.TrimSpace(query)
	if query == "" {
		errs.Add("query", "Search query is required")
	} else if utf8.RuneCountInString(query) > maxQueryLen {
		errs.Add("query", "Search query is too long")
	}

	return errs
}

func ValidatePresence(status string) ValidationErrors {
	errs := make(ValidationErrors)

	if !domain.ValidPresence(status) {
		errs.Add("status", "Status must be online, away, or offline")
	}

	return errs
}

func ValidateSpeech(text string) ValidationErrors {
	errs := make(ValidationErrors)

	text = strings.TrimSpace(text)
	if text == "" {
		errs.Add("text", "Text is required")
	} else if len(text) > maxSpeechLength {
		errs.Add("text", "Text is too long")
	}

	return errs
}
