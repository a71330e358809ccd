package llm

import (
	"context"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAIHandler implements the LLM interface against any OpenAI-compatible
// endpoint (OpenAI, DashScope, LM Studio, Ollama's compat API).
type OpenAIHandler struct {
	systemMsg string
	client    *openai.Client
	logger    *logrus.Logger

	mu       sync.Mutex
	messages []openai.ChatCompletionMessage
}

// NewOpenAIHandler creates a handler. baseURL may be empty for api.openai.com.
func NewOpenAIHandler(apiKey, baseURL, systemPrompt string, logger *logrus.Logger) *OpenAIHandler {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	h := &OpenAIHandler{
		systemMsg: systemPrompt,
		client:    openai.NewClientWithConfig(cfg),
		logger:    logger,
	}
	h.Reset()
	return h
}

// Query sends one user message and returns the assistant's reply. The
// exchange is appended to the running conversation.
func (h *OpenAIHandler) Query(ctx context.Context, model, text string) (string, error) {
	return h.query(ctx, model, text, nil)
}

// QueryJSON is Query with the response format pinned to a JSON object.
func (h *OpenAIHandler) QueryJSON(ctx context.Context, model, text string) (string, error) {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	return h.query(ctx, model, text, format)
}

func (h *OpenAIHandler) query(ctx context.Context, model, text string, format *openai.ChatCompletionResponseFormat) (string, error) {
	h.mu.Lock()
	messages := append(h.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})
	h.mu.Unlock()

	resp, err := h.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          model,
		Messages:       messages,
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	content := resp.Choices[0].Message.Content

	h.mu.Lock()
	h.messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: content,
	})
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.WithFields(logrus.Fields{
			"model":  model,
			"tokens": resp.Usage.TotalTokens,
		}).Debug("llm query complete")
	}
	return content, nil
}

// Reset clears the conversation history back to the system prompt.
func (h *OpenAIHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: h.systemMsg,
	}}
}
