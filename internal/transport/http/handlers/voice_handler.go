package handlers

import (
	"errors"
	"net/http"

	"github.com/vedran77/teamchat/internal/service"
	"github.com/vedran77/teamchat/internal/transport/http/middleware"
	"go.uber.org/zap"
)

type VoiceHandler struct {
	voiceService *service.VoiceService
}

func NewVoiceHandler(voiceService *service.VoiceService) *VoiceHandler {
	return &VoiceHandler{voiceService: voiceService}
}

// Session returns an ephemeral realtime session for the browser's WebRTC
// connection to the voice assistant.
func (h *VoiceHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, err := h.voiceService.Session(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVoiceUnavailable):
			writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Voice chat is not available")
		default:
			zap.L().Error("voice session", zap.String("user_id", middleware.GetUserID(r.Context())), zap.Error(err))
			writeError(w, http.StatusBadGateway, "UPSTREAM", "Failed to create session")
		}
		return
	}

	writeJSON(w, http.StatusCreated, session)
}
