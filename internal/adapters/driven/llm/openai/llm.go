// Package openai provides an answer synthesis adapter using the OpenAI
// chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inquora/inquora-cli/internal/core/domain"
	"github.com/inquora/inquora-cli/internal/core/ports/driven"
)

// Ensure Answerer implements the interface.
var _ driven.Answerer = (*Answerer)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

const systemPrompt = `You are a research assistant. Answer the user's question using ONLY the provided evidence snippets. Cite snippets by their [n] marker. If the evidence does not cover the question, say so plainly instead of guessing.`

const noEvidenceNote = `No evidence could be retrieved for this question. Tell the user that no supporting material was found and, if you can, suggest how to rephrase or where to look. Do not invent facts.`

// Config holds configuration for the OpenAI answerer.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Answerer synthesizes prose answers from evidence via OpenAI.
type Answerer struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// New creates an OpenAI answerer.
func New(cfg Config) (*Answerer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Answerer{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Synthesize produces an answer grounded in the evidence. Recent
// conversation turns ride along so follow-up questions resolve.
func (a *Answerer) Synthesize(ctx context.Context, query string, evidence []domain.Evidence, history []domain.Turn) (string, error) {
	messages := []chatCompletionMsg{
		{Role: "system", Content: systemPrompt},
	}
	for _, turn := range history {
		messages = append(messages,
			chatCompletionMsg{Role: "user", Content: turn.Query},
			chatCompletionMsg{Role: "assistant", Content: turn.Response},
		)
	}
	messages = append(messages, chatCompletionMsg{Role: "user", Content: buildUserPrompt(query, evidence)})

	reqBody := chatCompletionRequest{
		Model:    a.model,
		Messages: messages,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		a.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// buildUserPrompt assembles the question with its numbered evidence
// block, or the explicit no-evidence note.
func buildUserPrompt(query string, evidence []domain.Evidence) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\n")

	if len(evidence) == 0 {
		b.WriteString(noEvidenceNote)
		return b.String()
	}

	b.WriteString("Evidence:\n")
	for i, item := range evidence {
		ref := item.SourceRef
		if ref == "" {
			ref = string(item.Tool)
		}
		fmt.Fprintf(&b, "[%d] (%s, %s) %s\n", i+1, item.Tool, ref, item.Snippet)
	}
	return b.String()
}

// ModelName returns the configured chat model.
func (a *Answerer) ModelName() string {
	return a.model
}

// Close releases resources.
func (a *Answerer) Close() error {
	a.client.CloseIdleConnections()
	return nil
}
