package ai

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxLineSize bounds a single SSE/NDJSON line.
const maxLineSize = 1 << 20

// decodeFunc turns one line of a streaming body into a text chunk.
// done reports the end-of-reply marker; an empty chunk is skipped.
type decodeFunc func(line []byte) (chunk string, done bool, err error)

// lineStream reads a line-delimited streaming HTTP body (SSE or NDJSON).
type lineStream struct {
	provider string
	body     io.ReadCloser
	scanner  *bufio.Scanner
	decode   decodeFunc
	started  time.Time

	reply strings.Builder
	ended bool
}

var _ Stream = (*lineStream)(nil)

func newLineStream(provider string, body io.ReadCloser, decode decodeFunc) *lineStream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &lineStream{
		provider: provider,
		body:     body,
		scanner:  sc,
		decode:   decode,
		started:  time.Now(),
	}
}

func (s *lineStream) Recv() (string, error) {
	if s.ended {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		chunk, done, err := s.decode(line)
		if err != nil {
			s.finish(err)
			return "", err
		}
		if done {
			s.finish(nil)
			return "", io.EOF
		}
		if chunk == "" {
			continue
		}
		s.reply.WriteString(chunk)
		return chunk, nil
	}
	if err := s.scanner.Err(); err != nil {
		err = fmt.Errorf("%s stream: %w", s.provider, err)
		s.finish(err)
		return "", err
	}
	s.finish(nil)
	return "", io.EOF
}

func (s *lineStream) Close() error {
	if !s.ended {
		s.finish(context.Canceled)
	}
	return s.body.Close()
}

func (s *lineStream) finish(err error) {
	s.ended = true
	LogAIResponse("stream", s.provider, s.reply.String(), err, time.Since(s.started))
}

// sseData extracts the payload of an SSE "data:" line. Other fields
// (event:, id:, comments) report ok=false.
func sseData(line []byte) (payload []byte, ok bool) {
	if !bytes.HasPrefix(line, []byte("data:")) {
		return nil, false
	}
	return bytes.TrimSpace(line[len("data:"):]), true
}

// APIError is a non-200 response from a provider.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Body)
}

// doRequest sends req and converts a non-200 status into an error
// carrying the response body.
func doRequest(client *http.Client, provider string, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &APIError{Provider: provider, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}

// postJSON builds a JSON POST request.
func postJSON(ctx context.Context, url string, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// readBody reads a complete response body and closes it.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
