package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"
)

const (
	// maxConcurrentCalls caps simultaneous LLM requests so a message burst
	// cannot exhaust connections.
	maxConcurrentCalls = 5
	callTimeout        = 30 * time.Second
)

var ErrAIUnavailable = errors.New("ai service unavailable")

// AIService wraps the OpenAI-compatible endpoint behind the small surface the
// bot needs: toxicity judgment, question answering, welcome generation.
type AIService struct {
	client    *openai.Client
	model     string
	maxTokens int
	sem       *semaphore.Weighted
	log       zerolog.Logger
}

func NewAIService(client *openai.Client, model string, maxTokens int, log zerolog.Logger) *AIService {
	return &AIService{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		sem:       semaphore.NewWeighted(maxConcurrentCalls),
		log:       log.With().Str("component", "ai").Logger(),
	}
}

func (s *AIService) complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("chat completion failed")
		return "", fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrAIUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Classify returns whether the text violates content policy. Callers decide
// what a classification failure means; this method only reports it.
func (s *AIService) Classify(ctx context.Context, text string) (bool, error) {
	prompt := fmt.Sprintf(
		"Is the following text toxic, inappropriate, or offensive? Respond with 'Yes' or 'No':\n%s",
		text)

	answer, err := s.complete(ctx, prompt, 5, 0)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSuffix(answer, "."), "yes"), nil
}

// Ask answers a free-form user question.
func (s *AIService) Ask(ctx context.Context, question string) (string, error) {
	return s.complete(ctx, question, s.maxTokens, 0.7)
}

// GenerateWelcome produces a greeting for a new member; used only when the
// chat has no custom welcome template.
func (s *AIService) GenerateWelcome(ctx context.Context, name string) (string, error) {
	prompt := fmt.Sprintf(
		"Generate a short, friendly, casual welcome message for a user named %s joining a group chat. Include a fun tone and emojis.",
		name)
	return s.complete(ctx, prompt, 120, 0.8)
}
