package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	systemPrompt = "You are a helpful assistant in a team chat. Answer concisely and use the conversation for context."
	temperature  = 0.7
	maxTokens    = 500
	maxSpeechLen = 4096

	realtimeModel = "gpt-4o-realtime-preview-2024-12-17"
	realtimeVoice = "verse"
)

// OpenAIClient wraps chat completions and speech synthesis.
type OpenAIClient struct {
	client openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string, opts ...option.RequestOption) *OpenAIClient {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIClient{client: openai.NewClient(opts...), model: model}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, history []Turn) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	msgs = append(msgs, openai.SystemMessage(systemPrompt))
	for _, t := range history {
		if t.Role == RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(t.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(t.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    msgs,
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Speak renders text as MP3 audio.
func (c *OpenAIClient) Speak(ctx context.Context, text string) ([]byte, error) {
	if len(text) > maxSpeechLen {
		text = text[:maxSpeechLen]
	}
	res, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModelTTS1,
		Voice: openai.AudioSpeechNewParamsVoiceAlloy,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: %w", err)
	}
	defer res.Body.Close()

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	return audio, nil
}

type voiceSessionRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
}

// VoiceSession creates an ephemeral realtime session. The response is
// passed through untouched since the browser needs its client_secret.
func (c *OpenAIClient) VoiceSession(ctx context.Context) (json.RawMessage, error) {
	body, err := json.Marshal(voiceSessionRequest{Model: realtimeModel, Voice: realtimeVoice})
	if err != nil {
		return nil, err
	}

	var res []byte
	err = c.client.Post(ctx, "realtime/sessions", body, &res, option.WithHeader("Content-Type", "application/json"))
	if err != nil {
		return nil, fmt.Errorf("realtime session: %w", err)
	}
	if len(res) == 0 {
		return nil, ErrEmptyResponse
	}
	return json.RawMessage(res), nil
}
