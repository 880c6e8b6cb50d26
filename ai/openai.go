package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenAI implements the Provider interface for OpenAI's Chat Completions
// API and compatible gateways.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

var _ Provider = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI provider. An empty baseURL means
// https://api.openai.com.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	if model == "" {
		model = "gpt-4o"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
}

func (o *OpenAI) Name() string {
	return fmt.Sprintf("OpenAI (%s)", o.model)
}

type openAIMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (o *OpenAI) request(ctx context.Context, messages []Message, stream bool) (*http.Request, error) {
	msgs := withSystem(messages)
	apiMsgs := make([]openAIMsg, 0, len(msgs))
	for _, m := range msgs {
		apiMsgs = append(apiMsgs, openAIMsg(m))
	}

	payload, err := json.Marshal(map[string]interface{}{
		"model":    o.model,
		"messages": apiMsgs,
		"stream":   stream,
	})
	if err != nil {
		return nil, err
	}

	req, err := postJSON(ctx, o.baseURL+"/v1/chat/completions", payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	return req, nil
}

func (o *OpenAI) Chat(ctx context.Context, messages []Message) (reply string, err error) {
	LogAIRequest("chat", o.Name(), messages)
	start := time.Now()
	defer func() { LogAIResponse("chat", o.Name(), reply, err, time.Since(start)) }()

	req, err := o.request(ctx, messages, false)
	if err != nil {
		return "", err
	}
	resp, err := doRequest(o.client, "openai", req)
	if err != nil {
		return "", err
	}
	respBody, err := readBody(resp)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("openai parse error: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

func (o *OpenAI) ChatStream(ctx context.Context, messages []Message) (Stream, error) {
	LogAIRequest("stream", o.Name(), messages)

	req, err := o.request(ctx, messages, true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := doRequest(o.client, "openai", req)
	if err != nil {
		LogAIResponse("stream", o.Name(), "", err, 0)
		return nil, err
	}
	return newLineStream(o.Name(), resp.Body, decodeOpenAIChunk), nil
}

func decodeOpenAIChunk(line []byte) (string, bool, error) {
	data, ok := sseData(line)
	if !ok {
		return "", false, nil
	}
	if string(data) == "[DONE]" {
		return "", true, nil
	}
	var chunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &chunk); err != nil {
		return "", false, fmt.Errorf("openai parse error: %w", err)
	}
	if chunk.Error != nil {
		return "", false, fmt.Errorf("openai stream error: %s", chunk.Error.Message)
	}
	if len(chunk.Choices) == 0 {
		return "", false, nil
	}
	return chunk.Choices[0].Delta.Content, false, nil
}
