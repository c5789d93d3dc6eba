package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.openai.com"
	defaultModel       = "whisper-1"
	defaultHTTPTimeout = 10 * time.Minute
	transcribePath     = "/v1/audio/transcriptions"
	translatePath      = "/v1/audio/translations"
	modelsPath         = "/v1/models"
	responseFormatSRT  = "srt"
)

// Transcriber converts one audio file into SRT text.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}

// Request describes one transcription call.
type Request struct {
	AudioPath string
	Prompt    string
	// Language is an ISO 639-1 hint; ignored when Translate is set.
	Language  string
	Translate bool
}

// StatusError reports a non-2xx response from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// ErrUnauthorized is matched by errors for 401 and 403 responses.
var ErrUnauthorized = errors.New("api key rejected")

// Is lets errors.Is(err, ErrUnauthorized) match auth failures.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && (e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// Client calls the OpenAI audio API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// Option customizes a client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithBaseURL overrides the default base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
		}
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		if strings.TrimSpace(model) != "" {
			c.model = strings.TrimSpace(model)
		}
	}
}

// WithTimeout bounds each HTTP call. A timeout surfaces as an ordinary error,
// which RetryPolicy treats like any other failed attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http = &http.Client{Timeout: timeout, Transport: c.http.Transport}
		}
	}
}

// NewClient constructs a client for the audio transcription API.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		baseURL: defaultBaseURL,
		apiKey:  strings.TrimSpace(apiKey),
		model:   defaultModel,
		http: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}

	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Transcribe uploads an audio file and returns the SRT response body.
func (c *Client) Transcribe(ctx context.Context, req Request) (string, error) {
	if c == nil {
		return "", fmt.Errorf("transcription client: nil client")
	}
	filePath := strings.TrimSpace(req.AudioPath)
	if filePath == "" {
		return "", fmt.Errorf("transcription client: empty file path")
	}
	if c.apiKey == "" {
		return "", fmt.Errorf("transcription client: missing api key")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("transcription client: open audio: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := [][2]string{
		{"model", c.model},
		{"response_format", responseFormatSRT},
	}
	if !req.Translate && req.Language != "" {
		fields = append(fields, [2]string{"language", req.Language})
	}
	if req.Prompt != "" {
		fields = append(fields, [2]string{"prompt", req.Prompt})
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return "", fmt.Errorf("transcription client: write %s field: %w", field[0], err)
		}
	}

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("transcription client: create file field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("transcription client: copy audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("transcription client: close multipart writer: %w", err)
	}

	endpoint := c.baseURL + transcribePath
	if req.Translate {
		endpoint = c.baseURL + translatePath
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("transcription client: build request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Authorization", "Bearer "+c.apiKey)

	payload, err := c.do(request)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// CheckAPIKey verifies the configured key by listing models.
func (c *Client) CheckAPIKey(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("transcription client: nil client")
	}
	if c.apiKey == "" {
		return fmt.Errorf("transcription client: missing api key")
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+modelsPath, nil)
	if err != nil {
		return fmt.Errorf("transcription client: build request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	_, err = c.do(request)
	return err
}

func (c *Client) do(request *http.Request) ([]byte, error) {
	resp, err := c.http.Do(request)
	if err != nil {
		return nil, fmt.Errorf("transcription client: http request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transcription client: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("transcription client: %w", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
		})
	}
	return payload, nil
}
