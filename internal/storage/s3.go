package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ObjectAPI is the subset of the S3 client used for uploads.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner is the subset of the S3 presign client used for browser URLs.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	_ ObjectAPI = (*s3.Client)(nil)
	_ Presigner = (*s3.PresignClient)(nil)
)

type S3Store struct {
	api      ObjectAPI
	presign  Presigner
	bucket   string
	region   string
	endpoint string // S3-compatible host override
	ttl      time.Duration
	now      func() time.Time
}

func NewS3Store(client *s3.Client, bucket, region, endpoint string, ttl time.Duration) *S3Store {
	st := newS3Store(client, s3.NewPresignClient(client), bucket, region, ttl)
	st.endpoint = strings.TrimRight(endpoint, "/")
	return st
}

func newS3Store(api ObjectAPI, presign Presigner, bucket, region string, ttl time.Duration) *S3Store {
	return &S3Store{api: api, presign: presign, bucket: bucket, region: region, ttl: ttl, now: time.Now}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// NewKey returns a unique object key for an uploaded file name.
func (s *S3Store) NewKey(fileName string) string {
	name := unsafeChars.ReplaceAllString(path.Base(strings.TrimSpace(fileName)), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("uploads/%d-%s-%s", s.now().UnixMilli(), uuid.NewString()[:8], name)
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("putting object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("presigning get %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Store) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("presigning put %s: %w", key, err)
	}
	return req.URL, nil
}

// PublicURL is the permanent URL of key stored on attachments. Custom
// endpoints use path-style addressing like the client does.
func (s *S3Store) PublicURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
