package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/metrics"
	"go.uber.org/zap"
)

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrEmptyFile    = errors.New("file is empty")
	ErrInvalidKey   = errors.New("invalid file key")
)

const uploadPrefix = "uploads/"

// ObjectStore is the object storage the file service writes to.
type ObjectStore interface {
	NewKey(fileName string) string
	Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error
	PresignGet(ctx context.Context, key string) (string, error)
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	PublicURL(key string) string
}

// Ingester receives uploaded documents for retrieval.
type Ingester interface {
	Ingest(ctx context.Context, fileName string, r io.Reader) error
}

type FileService struct {
	store   ObjectStore
	ingest  Ingester
	maxSize int64
}

// NewFileService creates the service; ingest may be nil.
func NewFileService(store ObjectStore, ingest Ingester, maxSize int64) *FileService {
	return &FileService{store: store, ingest: ingest, maxSize: maxSize}
}

func (s *FileService) MaxSize() int64 {
	return s.maxSize
}

// TooLarge formats the size limit error for clients.
func (s *FileService) TooLarge() error {
	return fmt.Errorf("%w: limit is %s", ErrFileTooLarge, humanize.IBytes(uint64(s.maxSize)))
}

// Upload stores the file and returns an attachment pointing at the object's
// permanent URL, which is what messages keep. The file is also offered to
// the document index; failures there only get logged.
func (s *FileService) Upload(ctx context.Context, fileName, contentType string, body io.Reader) (*domain.FileAttachment, error) {
	data, err := io.ReadAll(io.LimitReader(body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, s.TooLarge()
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := s.store.NewKey(fileName)
	if err := s.store.Put(ctx, key, contentType, int64(len(data)), bytes.NewReader(data)); err != nil {
		return nil, err
	}
	metrics.Uploads.Inc()
	metrics.UploadBytes.Add(float64(len(data)))

	if s.ingest != nil {
		if err := s.ingest.Ingest(ctx, fileName, bytes.NewReader(data)); err != nil {
			zap.L().Warn("document ingest failed", zap.String("key", key), zap.Error(err))
		}
	}

	zap.L().Info("file uploaded", zap.String("key", key), zap.String("size", humanize.IBytes(uint64(len(data)))))

	return &domain.FileAttachment{
		FileName: fileName,
		FileType: contentType,
		FileSize: int64(len(data)),
		FileURL:  s.store.PublicURL(key),
		S3Key:    key,
	}, nil
}

// UploadURL returns a presigned PUT target for a browser-side upload.
func (s *FileService) UploadURL(ctx context.Context, fileName, contentType string, size int64) (*domain.UploadTarget, error) {
	if size > s.maxSize {
		return nil, s.TooLarge()
	}
	key := s.store.NewKey(fileName)

	put, err := s.store.PresignPut(ctx, key, contentType)
	if err != nil {
		return nil, err
	}
	return &domain.UploadTarget{UploadURL: put, FileURL: s.store.PublicURL(key), Key: key}, nil
}

// DownloadURL presigns a short-lived GET for private buckets.
func (s *FileService) DownloadURL(ctx context.Context, key string) (string, error) {
	if !strings.HasPrefix(key, uploadPrefix) || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return s.store.PresignGet(ctx, key)
}
