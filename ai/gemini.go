package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Gemini implements the Provider interface for Google's Gemini API
// (Generative Language API with an API key).
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

var _ Provider = (*Gemini)(nil)

// NewGemini creates a Gemini provider.
func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		client:  http.DefaultClient,
	}
}

func (g *Gemini) Name() string {
	return fmt.Sprintf("Gemini (%s)", g.model)
}

func (g *Gemini) endpoint(method string, stream bool) string {
	q := url.Values{"key": {g.apiKey}}
	if stream {
		q.Set("alt", "sse")
	}
	return fmt.Sprintf("%s/models/%s:%s?%s", strings.TrimRight(g.baseURL, "/"), g.model, method, q.Encode())
}

func (g *Gemini) Chat(ctx context.Context, messages []Message) (reply string, err error) {
	LogAIRequest("chat", g.Name(), messages)
	start := time.Now()
	defer func() { LogAIResponse("chat", g.Name(), reply, err, time.Since(start)) }()

	return generateContent(ctx, g.client, "gemini", g.endpoint("generateContent", false), messages)
}

func (g *Gemini) ChatStream(ctx context.Context, messages []Message) (Stream, error) {
	LogAIRequest("stream", g.Name(), messages)
	s, err := streamGenerateContent(ctx, g.client, g.Name(), "gemini", g.endpoint("streamGenerateContent", true), messages)
	if err != nil {
		LogAIResponse("stream", g.Name(), "", err, 0)
		return nil, err
	}
	return s, nil
}

// The Gemini and Vertex AI generateContent APIs share a wire format.

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (r geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func geminiPayload(messages []Message) ([]byte, error) {
	system, rest := splitSystem(messages)
	contents := make([]geminiContent, 0, len(rest))
	for _, m := range rest {
		role := m.Role
		if role == RoleAssistant {
			role = "model" // Gemini uses "model" instead of "assistant"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	return json.Marshal(map[string]interface{}{
		"contents":          contents,
		"systemInstruction": geminiContent{Parts: []geminiPart{{Text: system}}},
	})
}

func generateContent(ctx context.Context, client *http.Client, provider, endpoint string, messages []Message) (string, error) {
	payload, err := geminiPayload(messages)
	if err != nil {
		return "", err
	}
	req, err := postJSON(ctx, endpoint, payload)
	if err != nil {
		return "", err
	}
	resp, err := doRequest(client, provider, req)
	if err != nil {
		return "", err
	}
	respBody, err := readBody(resp)
	if err != nil {
		return "", err
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%s parse error: %w", provider, err)
	}
	if result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%s blocked the prompt: %s", provider, result.PromptFeedback.BlockReason)
	}
	text := result.text()
	if text == "" {
		return "", fmt.Errorf("%s returned no content", provider)
	}
	return text, nil
}

func streamGenerateContent(ctx context.Context, client *http.Client, name, provider, endpoint string, messages []Message) (Stream, error) {
	payload, err := geminiPayload(messages)
	if err != nil {
		return nil, err
	}
	req, err := postJSON(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := doRequest(client, provider, req)
	if err != nil {
		return nil, err
	}
	return newLineStream(name, resp.Body, func(line []byte) (string, bool, error) {
		data, ok := sseData(line)
		if !ok {
			return "", false, nil
		}
		var chunk geminiResponse
		if err := json.Unmarshal(data, &chunk); err != nil {
			return "", false, fmt.Errorf("%s parse error: %w", provider, err)
		}
		if chunk.PromptFeedback.BlockReason != "" {
			return "", false, fmt.Errorf("%s blocked the prompt: %s", provider, chunk.PromptFeedback.BlockReason)
		}
		return chunk.text(), false, nil
	}), nil
}
