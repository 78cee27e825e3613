package service

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/vedran77/teamchat/internal/ai"
	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/metrics"
	"go.uber.org/zap"
)

const (
	aiHistorySize   = 10
	aiReplyTimeout  = 45 * time.Second
	aiFallbackReply = "Sorry, I could not generate a response right now. Please try again later."
	aiDefaultPrompt = "Hello!"
)

var (
	mentionPattern = regexp.MustCompile(`(?i)(?:^|[^\w@])@ai\b`)
	mentionStrip   = regexp.MustCompile(`(?i)@ai(?:\s+assistant)?\b`)
)

// AIService answers messages addressed to the assistant user.
type AIService struct {
	messages *MessageService
	channels *ChannelService
	rag      ai.Generator
	llm      ai.Generator
	timeout  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewAIService wires the reply backends. Either may be nil; replies then fall
// through to the next backend and finally to a fixed apology.
func NewAIService(messages *MessageService, channels *ChannelService, rag, llm ai.Generator) *AIService {
	return &AIService{
		messages: messages,
		channels: channels,
		rag:      rag,
		llm:      llm,
		timeout:  aiReplyTimeout,
		now:      time.Now,
	}
}

// Mentioned reports whether content addresses the assistant.
func Mentioned(content string) bool {
	return mentionPattern.MatchString(content)
}

// MaybeRespond starts an asynchronous reply when msg mentions the assistant
// or was posted in a DM with it.
func (s *AIService) MaybeRespond(msg *domain.Message) {
	if msg.UserID == domain.AIUserID {
		return
	}
	trigger := *msg

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if !s.addressed(ctx, &trigger) {
			return
		}
		s.respond(ctx, &trigger)
	}()
}

// Wait blocks until in-flight replies finish.
func (s *AIService) Wait() {
	s.wg.Wait()
}

// Stop refuses new replies and waits for in-flight ones.
func (s *AIService) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *AIService) addressed(ctx context.Context, msg *domain.Message) bool {
	if Mentioned(msg.Content) {
		return true
	}
	if !strings.HasPrefix(msg.ChannelID, domain.DMChannelPrefix) {
		return false
	}
	ch, err := s.channels.Get(ctx, msg.UserID, msg.ChannelID)
	if err != nil {
		return false
	}
	return ch.IsDM && ch.HasParticipant(domain.AIUserID)
}

func (s *AIService) respond(ctx context.Context, trigger *domain.Message) {
	log := zap.L().With(zap.String("channel_id", trigger.ChannelID), zap.String("trigger_id", trigger.MessageID))

	prompt := strings.TrimSpace(mentionStrip.ReplaceAllString(trigger.Content, ""))
	if prompt == "" {
		prompt = aiDefaultPrompt
	}

	history, err := s.history(ctx, trigger)
	if err != nil {
		log.Warn("assistant history unavailable", zap.Error(err))
	}

	reply, source := s.generate(ctx, prompt, history, log)
	metrics.AIReplies.WithLabelValues(source).Inc()

	_, err = s.messages.PostAs(ctx, domain.AIUser(s.now().UnixMilli()), SendMessageInput{
		ChannelID:       trigger.ChannelID,
		Content:         reply,
		ParentMessageID: trigger.ParentMessageID,
	})
	if err != nil {
		log.Error("assistant reply not stored", zap.Error(err))
	}
}

func (s *AIService) generate(ctx context.Context, prompt string, history []ai.Turn, log *zap.Logger) (string, string) {
	backends := []struct {
		name string
		gen  ai.Generator
	}{
		{metrics.SourceRAG, s.rag},
		{metrics.SourceOpenAI, s.llm},
	}
	for _, b := range backends {
		if b.gen == nil {
			continue
		}
		text, err := b.gen.Generate(ctx, prompt, history)
		if err == nil {
			return text, b.name
		}
		log.Warn("assistant backend failed", zap.String("backend", b.name), zap.Error(err))
	}
	return aiFallbackReply, metrics.SourceFallback
}

// history converts the channel's latest messages before trigger into turns.
func (s *AIService) history(ctx context.Context, trigger *domain.Message) ([]ai.Turn, error) {
	recent, err := s.messages.Recent(ctx, trigger.ChannelID, aiHistorySize+1)
	if err != nil {
		return nil, err
	}

	turns := make([]ai.Turn, 0, len(recent))
	for _, m := range recent {
		if m.MessageID == trigger.MessageID || m.Content == "" {
			continue
		}
		role := ai.RoleUser
		if m.UserID == domain.AIUserID {
			role = ai.RoleAssistant
		}
		turns = append(turns, ai.Turn{Role: role, Content: m.Content})
	}
	if len(turns) > aiHistorySize {
		turns = turns[len(turns)-aiHistorySize:]
	}
	return turns, nil
}
