package ai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Vertex implements the Provider interface for Gemini models served by
// Vertex AI, authenticated with a service-account credentials file.
type Vertex struct {
	projectID string
	location  string
	model     string
	baseURL   string
	client    *http.Client
}

var _ Provider = (*Vertex)(nil)

// NewVertex reads the service-account credentials file and returns a
// provider whose HTTP client attaches OAuth2 access tokens.
func NewVertex(ctx context.Context, projectID, location, model, credentialsPath string) (*Vertex, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("vertex credentials path not set. Set GOOGLE_CLOUD_CREDENTIALS or ai.vertex.credentials_path")
	}
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read vertex credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("parse vertex credentials: %w", err)
	}
	if projectID == "" {
		projectID = creds.ProjectID
	}
	return newVertex(projectID, location, model, oauth2.NewClient(context.Background(), creds.TokenSource))
}

func newVertex(projectID, location, model string, client *http.Client) (*Vertex, error) {
	if projectID == "" {
		return nil, fmt.Errorf("vertex project id not set")
	}
	if location == "" {
		location = "us-central1"
	}
	if model == "" {
		model = "gemini-1.5-pro-001"
	}
	return &Vertex{
		projectID: projectID,
		location:  location,
		model:     model,
		baseURL:   fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", location),
		client:    client,
	}, nil
}

func (v *Vertex) Name() string {
	return fmt.Sprintf("Vertex AI (%s)", v.model)
}

func (v *Vertex) endpoint(method string) string {
	u := fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:%s",
		v.baseURL, v.projectID, v.location, v.model, method)
	if method == "streamGenerateContent" {
		u += "?alt=sse"
	}
	return u
}

func (v *Vertex) Chat(ctx context.Context, messages []Message) (reply string, err error) {
	LogAIRequest("chat", v.Name(), messages)
	start := time.Now()
	defer func() { LogAIResponse("chat", v.Name(), reply, err, time.Since(start)) }()

	return generateContent(ctx, v.client, "vertex", v.endpoint("generateContent"), messages)
}

func (v *Vertex) ChatStream(ctx context.Context, messages []Message) (Stream, error) {
	LogAIRequest("stream", v.Name(), messages)
	s, err := streamGenerateContent(ctx, v.client, v.Name(), "vertex", v.endpoint("streamGenerateContent"), messages)
	if err != nil {
		LogAIResponse("stream", v.Name(), "", err, 0)
		return nil, err
	}
	return s, nil
}
