package service

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrTTSUnavailable = errors.New("text to speech is not configured")
	ErrEmptyText      = errors.New("text is empty")
)

// Speaker renders text as MP3 audio.
type Speaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

type TTSService struct {
	speaker Speaker
}

// NewTTSService creates the service; a nil speaker makes every call fail
// with ErrTTSUnavailable.
func NewTTSService(speaker Speaker) *TTSService {
	return &TTSService{speaker: speaker}
}

func (s *TTSService) Speak(ctx context.Context, text string) ([]byte, error) {
	if s.speaker == nil {
		return nil, ErrTTSUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	return s.speaker.Speak(ctx, text)
}
