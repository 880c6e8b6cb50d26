package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Anthropic implements the Provider interface for the Anthropic Messages API.
type Anthropic struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

var _ Provider = (*Anthropic)(nil)

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &Anthropic{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.anthropic.com",
		client:  http.DefaultClient,
	}
}

func (a *Anthropic) Name() string {
	return fmt.Sprintf("Anthropic (%s)", a.model)
}

func (a *Anthropic) request(ctx context.Context, messages []Message, stream bool) (*http.Request, error) {
	type apiMsg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	// Anthropic doesn't use "system" role in messages; it's a top-level field.
	system, rest := splitSystem(messages)
	apiMsgs := make([]apiMsg, 0, len(rest))
	for _, m := range rest {
		apiMsgs = append(apiMsgs, apiMsg(m))
	}
	if len(apiMsgs) == 0 {
		return nil, fmt.Errorf("anthropic requires at least one user message")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"model":      a.model,
		"max_tokens": 4096,
		"system":     system,
		"messages":   apiMsgs,
		"stream":     stream,
	})
	if err != nil {
		return nil, err
	}

	req, err := postJSON(ctx, strings.TrimRight(a.baseURL, "/")+"/v1/messages", payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	return req, nil
}

func (a *Anthropic) Chat(ctx context.Context, messages []Message) (reply string, err error) {
	LogAIRequest("chat", a.Name(), messages)
	start := time.Now()
	defer func() { LogAIResponse("chat", a.Name(), reply, err, time.Since(start)) }()

	req, err := a.request(ctx, messages, false)
	if err != nil {
		return "", err
	}
	resp, err := doRequest(a.client, "anthropic", req)
	if err != nil {
		return "", err
	}
	respBody, err := readBody(resp)
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("anthropic parse error: %w", err)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic returned no text content")
	}
	return sb.String(), nil
}

func (a *Anthropic) ChatStream(ctx context.Context, messages []Message) (Stream, error) {
	LogAIRequest("stream", a.Name(), messages)

	req, err := a.request(ctx, messages, true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := doRequest(a.client, "anthropic", req)
	if err != nil {
		LogAIResponse("stream", a.Name(), "", err, 0)
		return nil, err
	}
	return newLineStream(a.Name(), resp.Body, decodeAnthropicEvent), nil
}

func decodeAnthropicEvent(line []byte) (string, bool, error) {
	data, ok := sseData(line)
	if !ok {
		return "", false, nil
	}
	var ev struct {
		Type  string `json:"type"`
		Delta struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"delta"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", false, fmt.Errorf("anthropic parse error: %w", err)
	}
	switch ev.Type {
	case "content_block_delta":
		if ev.Delta.Type == "text_delta" {
			return ev.Delta.Text, false, nil
		}
	case "message_stop":
		return "", true, nil
	case "error":
		return "", false, fmt.Errorf("anthropic stream error: %s", ev.Error.Message)
	}
	return "", false, nil
}
