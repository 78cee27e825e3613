package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/vedran77/teamchat/internal/service"
	"github.com/vedran77/teamchat/pkg/validator"
	"go.uber.org/zap"
)

type TTSHandler struct {
	ttsService *service.TTSService
}

func NewTTSHandler(ttsService *service.TTSService) *TTSHandler {
	return &TTSHandler{ttsService: ttsService}
}

type speakRequest struct {
	Text string `json:"text"`
}

// Speak returns the text rendered as MP3.
func (h *TTSHandler) Speak(w http.ResponseWriter, r *http.Request) {
	var input speakRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateSpeech(input.Text); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	audio, err := h.ttsService.Speak(r.Context(), input.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTTSUnavailable):
			writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Text to speech is not available")
		case errors.Is(err, service.ErrEmptyText):
			writeError(w, http.StatusBadRequest, "EMPTY_TEXT", "Text is required")
		default:
			zap.L().Error("text to speech", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}
