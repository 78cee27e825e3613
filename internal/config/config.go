package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDynamo = "dynamo"
	StoreMemory = "memory"
)

type Config struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"4000"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	JWTSecret   string `env:"JWT_SECRET"`

	AWSRegion          string `env:"AWS_REGION"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	ChatStore          string `env:"CHAT_STORE" envDefault:"dynamo"`
	DynamoEndpoint     string `env:"DYNAMO_ENDPOINT"`
	DynamoCreateTables bool   `env:"DYNAMO_CREATE_TABLES" envDefault:"false"`
	UsersTable         string `env:"USERS_TABLE" envDefault:"Users"`
	ChannelsTable      string `env:"CHANNELS_TABLE" envDefault:"Channels"`
	MessagesTable      string `env:"MESSAGES_TABLE" envDefault:"Messages"`

	S3Bucket      string        `env:"S3_BUCKET_NAME"`
	S3Endpoint    string        `env:"S3_ENDPOINT"`
	PresignTTL    time.Duration `env:"PRESIGN_TTL" envDefault:"1h"`
	MaxUploadSize int64         `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`

	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	RAGServiceURL string `env:"RAG_SERVICE_URL"`
	RAGUploadURL  string `env:"RAG_UPLOAD_URL"`

	PresenceDSN string `env:"PRESENCE_DSN"`

	EventRate  float64 `env:"EVENT_RATE" envDefault:"20"`
	EventBurst int     `env:"EVENT_BURST" envDefault:"40"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// a missing .env is the normal case outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing required key at once.
func (c *Config) Validate() error {
	var missing []string
	if c.AWSRegion == "" {
		missing = append(missing, "AWS_REGION")
	}
	if c.S3Bucket == "" {
		missing = append(missing, "S3_BUCKET_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.ChatStore != StoreDynamo && c.ChatStore != StoreMemory {
		return fmt.Errorf("CHAT_STORE must be %q or %q", StoreDynamo, StoreMemory)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	return nil
}

// DevAuth reports whether socket clients may identify themselves without a token.
func (c *Config) DevAuth() bool {
	return c.JWTSecret == ""
}
