package service

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrVoiceUnavailable = errors.New("voice chat is not configured")

// SessionCreator opens ephemeral realtime voice sessions.
type SessionCreator interface {
	VoiceSession(ctx context.Context) (json.RawMessage, error)
}

type VoiceService struct {
	sessions SessionCreator
}

// NewVoiceService creates the service; a nil creator makes every call fail
// with ErrVoiceUnavailable.
func NewVoiceService(sessions SessionCreator) *VoiceService {
	return &VoiceService{sessions: sessions}
}

func (s *VoiceService) Session(ctx context.Context) (json.RawMessage, error) {
	if s.sessions == nil {
		return nil, ErrVoiceUnavailable
	}
	return s.sessions.VoiceSession(ctx)
}
