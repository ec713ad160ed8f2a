package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 120 * time.Second
	responseFormat     = "verbose_json"
)

// Config captures the runtime settings required to talk to the transcription API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Language       string
	TimeoutSeconds int
}

// Client wraps an OpenAI-compatible audio transcription endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a transcription client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Language:       strings.TrimSpace(cfg.Language),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.openai.com/v1/audio/transcriptions"
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Segment is one timestamped span of a chunk's transcript. Start and End are
// seconds relative to the start of the uploaded chunk.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result is the transcription of one uploaded chunk.
type Result struct {
	Text     string
	Segments []Segment
	Duration float64
}

// StatusError reports a non-2xx response from the transcription endpoint.
// RetryAfter carries the service's rate-limit reset hint when present.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transcription request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type verboseResponse struct {
	Task     string    `json:"task"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
	Text     string    `json:"text"`
}

// Transcribe uploads the chunk bytes and returns text, ordered segments, and
// the audio duration the service measured for the chunk. language is the
// ISO-639-1 code for this request; empty falls back to the configured
// language. One call, no retry; retry policy belongs to the caller.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte, language string) (Result, error) {
	var result Result
	if len(audio) == 0 {
		return result, errors.New("transcribe: audio bytes required")
	}
	if c.cfg.APIKey == "" {
		return result, errors.New("transcribe: api key required")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return result, fmt.Errorf("transcribe: build form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return result, fmt.Errorf("transcribe: write audio: %w", err)
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = c.cfg.Language
	}
	fields := map[string]string{
		"model":           c.cfg.Model,
		"response_format": responseFormat,
	}
	if language != "" {
		fields["language"] = language
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return result, fmt.Errorf("transcribe: write field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return result, fmt.Errorf("transcribe: finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, body)
	if err != nil {
		return result, fmt.Errorf("transcribe: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, fmt.Errorf("transcribe: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, fmt.Errorf("transcribe: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return result, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
			RetryAfter: retryAfter,
		}
	}

	var decoded verboseResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return result, fmt.Errorf("transcribe: decode response: %w", err)
	}

	result.Text = strings.TrimSpace(decoded.Text)
	result.Segments = decoded.Segments
	result.Duration = decoded.Duration
	return result, nil
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
