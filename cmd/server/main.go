package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vedran77/teamchat/internal/ai"
	"github.com/vedran77/teamchat/internal/auth"
	"github.com/vedran77/teamchat/internal/config"
	"github.com/vedran77/teamchat/internal/database"
	"github.com/vedran77/teamchat/internal/logger"
	"github.com/vedran77/teamchat/internal/repository"
	dynamorepo "github.com/vedran77/teamchat/internal/repository/dynamo"
	memoryrepo "github.com/vedran77/teamchat/internal/repository/memory"
	postgresrepo "github.com/vedran77/teamchat/internal/repository/postgres"
	"github.com/vedran77/teamchat/internal/service"
	"github.com/vedran77/teamchat/internal/storage"
	"github.com/vedran77/teamchat/internal/transport/http/handlers"
	"github.com/vedran77/teamchat/internal/transport/http/middleware"
	"github.com/vedran77/teamchat/internal/transport/ws"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

type chatStore struct {
	users    repository.UserRepository
	channels repository.ChannelRepository
	messages repository.MessageRepository
}

func main() {
	if err := run(); err != nil {
		zap.L().Error("server stopped", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := database.LoadAWS(ctx, cfg)
	if err != nil {
		return err
	}

	// Chat store
	store, err := openChatStore(ctx, cfg, database.NewDynamo(awsCfg, cfg.DynamoEndpoint))
	if err != nil {
		return err
	}

	// Presence
	presenceRepo, closePresence, err := openPresence(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePresence()

	// Files
	objects := storage.NewS3Store(database.NewS3(awsCfg, cfg.S3Endpoint), cfg.S3Bucket, cfg.AWSRegion, cfg.S3Endpoint, cfg.PresignTTL)

	// AI backends; interfaces stay nil when a backend is not configured
	rag := ai.NewRAGClient(cfg.RAGServiceURL, cfg.RAGUploadURL, nil)
	var ragGen, llmGen ai.Generator
	var ingester service.Ingester
	var speaker service.Speaker
	var voice service.SessionCreator
	if rag.Enabled() {
		ragGen = rag
	}
	if rag.IngestEnabled() {
		ingester = rag
	}
	if cfg.OpenAIKey != "" {
		llm := ai.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel)
		llmGen = llm
		speaker = llm
		voice = llm
	}

	// Services
	userService := service.NewUserService(store.users)
	channelService := service.NewChannelService(store.channels, store.messages)
	dmService := service.NewDMService(store.channels, userService)
	messageService := service.NewMessageService(store.messages, channelService, userService)
	searchService := service.NewSearchService(store.messages, store.channels)
	presenceService := service.NewPresenceService(presenceRepo)
	fileService := service.NewFileService(objects, ingester, cfg.MaxUploadSize)
	ttsService := service.NewTTSService(speaker)
	voiceService := service.NewVoiceService(voice)
	aiService := service.NewAIService(messageService, channelService, ragGen, llmGen)
	messageService.SetAssistant(aiService)

	// Realtime
	hub := ws.NewHub()
	notifier := ws.NewHubNotifier(hub)
	channelService.SetNotifier(notifier)
	dmService.SetNotifier(notifier)
	messageService.SetNotifier(notifier)
	presenceService.SetNotifier(notifier)
	hub.OnPresence(func(userID, status string) {
		if _, err := presenceService.Set(ctx, userID, status); err != nil {
			zap.L().Warn("presence update failed", zap.String("user_id", userID), zap.Error(err))
		}
	})

	gateway := ws.NewGateway(ws.Services{
		Users:    userService,
		Channels: channelService,
		DMs:      dmService,
		Messages: messageService,
		Search:   searchService,
		Presence: presenceService,
	}, cfg.MaxUploadSize)

	verifier := auth.NewVerifier(cfg.JWTSecret)
	if verifier.DevMode() {
		zap.L().Warn("JWT_SECRET not set, clients identify themselves with user_id")
	}

	// Handlers
	fileHandler := handlers.NewFileHandler(fileService)
	ttsHandler := handlers.NewTTSHandler(ttsService)
	voiceHandler := handlers.NewVoiceHandler(voiceService)

	authed := middleware.Auth(verifier)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /ws", ws.ServeWS(ctx, hub, gateway, verifier, ws.Options{
		OriginPatterns: originPatterns(cfg.FrontendURL),
		EventRate:      rate.Limit(cfg.EventRate),
		EventBurst:     cfg.EventBurst,
	}))

	// Protected - Files
	mux.Handle("POST /api/upload", authed(http.HandlerFunc(fileHandler.Upload)))
	mux.Handle("POST /api/files/upload-url", authed(http.HandlerFunc(fileHandler.UploadURL)))
	mux.Handle("GET /api/files/download-url", authed(http.HandlerFunc(fileHandler.DownloadURL)))

	// Protected - Speech
	mux.Handle("POST /api/tts", authed(http.HandlerFunc(ttsHandler.Speak)))
	mux.Handle("POST /api/voice/session", authed(http.HandlerFunc(voiceHandler.Session)))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           middleware.RequestLogger(middleware.CORS(cfg.FrontendURL)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		zap.L().Info("starting server", zap.String("addr", srv.Addr), zap.String("chat_store", cfg.ChatStore))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	aiService.Stop()
	zap.L().Info("server stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openChatStore(ctx context.Context, cfg *config.Config, db *dynamodb.Client) (*chatStore, error) {
	if cfg.ChatStore == config.StoreMemory {
		zap.L().Warn("using in-memory chat store, data is lost on restart")
		return &chatStore{
			users:    memoryrepo.NewUserRepo(),
			channels: memoryrepo.NewChannelRepo(),
			messages: memoryrepo.NewMessageRepo(),
		}, nil
	}

	tables := dynamorepo.Tables{
		Users:    cfg.UsersTable,
		Channels: cfg.ChannelsTable,
		Messages: cfg.MessagesTable,
	}
	if cfg.DynamoCreateTables {
		if err := dynamorepo.EnsureTables(ctx, db, tables); err != nil {
			return nil, err
		}
	}

	return &chatStore{
		users:    dynamorepo.NewUserRepo(db, tables.Users),
		channels: dynamorepo.NewChannelRepo(db, tables.Channels),
		messages: dynamorepo.NewMessageRepo(db, tables.Messages),
	}, nil
}

func openPresence(ctx context.Context, cfg *config.Config) (repository.PresenceRepository, func(), error) {
	if cfg.PresenceDSN == "" {
		return memoryrepo.NewPresenceRepo(), func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg.PresenceDSN)
	if err != nil {
		return nil, nil, err
	}
	repo := postgresrepo.NewPresenceRepo(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	zap.L().Info("connected to presence database")
	return repo, pool.Close, nil
}

// originPatterns turns the frontend URL into a websocket origin pattern.
func originPatterns(frontendURL string) []string {
	host := frontendURL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	host = strings.TrimRight(host, "/")
	if host == "" || host == "*" {
		return nil
	}
	return []string{host}
}
