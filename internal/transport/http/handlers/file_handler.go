package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vedran77/teamchat/internal/service"
	"github.com/vedran77/teamchat/internal/transport/http/middleware"
	"github.com/vedran77/teamchat/pkg/validator"
	"go.uber.org/zap"
)

// multipart framing allowance on top of the file size limit
const multipartOverhead = 1 << 20

type FileHandler struct {
	fileService *service.FileService
}

func NewFileHandler(fileService *service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

type uploadURLRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// Upload accepts a multipart form with a single "file" field.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.fileService.MaxSize()+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", h.fileService.TooLarge().Error())
			return
		}
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "No file uploaded")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	att, err := h.fileService.Upload(r.Context(), header.Filename, contentType, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
		case errors.Is(err, service.ErrEmptyFile):
			writeError(w, http.StatusBadRequest, "EMPTY_FILE", "File is empty")
		default:
			zap.L().Error("upload file", zap.String("user_id", middleware.GetUserID(r.Context())), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, att)
}

// UploadURL hands out a presigned PUT so browsers can upload directly.
func (h *FileHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	var input uploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateAttachment(input.FileName, input.FileType, "", input.FileSize, 0); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	target, err := h.fileService.UploadURL(r.Context(), input.FileName, input.FileType, input.FileSize)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
		default:
			zap.L().Error("presign upload", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, target)
}

func (h *FileHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "MISSING_KEY", "File key is required")
		return
	}

	url, err := h.fileService.DownloadURL(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidKey):
			writeError(w, http.StatusBadRequest, "INVALID_KEY", "Invalid file key")
		default:
			zap.L().Error("presign download", zap.String("key", key), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
