package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Ollama implements the Provider interface for local Ollama instances.
type Ollama struct {
	host   string
	model  string
	client *http.Client
}

var _ Provider = (*Ollama)(nil)

// NewOllama creates an Ollama provider.
func NewOllama(host, model string) *Ollama {
	if host == "" {
		host = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &Ollama{host: strings.TrimRight(host, "/"), model: model, client: http.DefaultClient}
}

func (o *Ollama) Name() string {
	return fmt.Sprintf("Ollama (%s)", o.model)
}

type ollamaChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

func (o *Ollama) request(ctx context.Context, messages []Message, stream bool) (*http.Request, error) {
	type chatMsg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	msgs := withSystem(messages)
	apiMsgs := make([]chatMsg, 0, len(msgs))
	for _, m := range msgs {
		apiMsgs = append(apiMsgs, chatMsg(m))
	}

	payload, err := json.Marshal(map[string]interface{}{
		"model":    o.model,
		"messages": apiMsgs,
		"stream":   stream,
	})
	if err != nil {
		return nil, err
	}
	return postJSON(ctx, o.host+"/api/chat", payload)
}

func (o *Ollama) Chat(ctx context.Context, messages []Message) (reply string, err error) {
	LogAIRequest("chat", o.Name(), messages)
	start := time.Now()
	defer func() { LogAIResponse("chat", o.Name(), reply, err, time.Since(start)) }()

	req, err := o.request(ctx, messages, false)
	if err != nil {
		return "", err
	}
	resp, err := o.do(req)
	if err != nil {
		return "", err
	}
	respBody, err := readBody(resp)
	if err != nil {
		return "", err
	}

	var result ollamaChunk
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("ollama parse error: %w", err)
	}
	if result.Message.Content == "" {
		return "", fmt.Errorf("ollama returned empty response")
	}
	return result.Message.Content, nil
}

func (o *Ollama) ChatStream(ctx context.Context, messages []Message) (Stream, error) {
	LogAIRequest("stream", o.Name(), messages)

	req, err := o.request(ctx, messages, true)
	if err != nil {
		return nil, err
	}
	resp, err := o.do(req)
	if err != nil {
		LogAIResponse("stream", o.Name(), "", err, 0)
		return nil, err
	}
	return newLineStream(o.Name(), resp.Body, decodeOllamaLine), nil
}

func (o *Ollama) do(req *http.Request) (*http.Response, error) {
	resp, err := doRequest(o.client, "ollama", req)
	var apiErr *APIError
	if err != nil && !errors.As(err, &apiErr) {
		return nil, fmt.Errorf("%w (is Ollama running at %s?)", err, o.host)
	}
	return resp, err
}

// decodeOllamaLine decodes one NDJSON object of a streamed /api/chat reply.
func decodeOllamaLine(line []byte) (string, bool, error) {
	var chunk ollamaChunk
	if err := json.Unmarshal(line, &chunk); err != nil {
		return "", false, fmt.Errorf("ollama parse error: %w", err)
	}
	if chunk.Error != "" {
		return "", false, fmt.Errorf("ollama stream error: %s", chunk.Error)
	}
	if chunk.Done {
		// The final object may still carry trailing content.
		if chunk.Message.Content != "" {
			return chunk.Message.Content, false, nil
		}
		return "", true, nil
	}
	return chunk.Message.Content, false, nil
}
