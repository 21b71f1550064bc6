package docengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/quotehub/quotehub-backend/pkg/config"
	"github.com/quotehub/quotehub-backend/pkg/logger"
)

// Page is a tabular extraction unit returned by the remote parsing engine.
type Page struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Document is the engine's extraction result for a single source file.
type Document struct {
	Pages []Page `json:"pages"`
}

type parseRequest struct {
	Format  string `json:"format"`
	Content []byte `json:"content"`
}

// Client calls the remote document parsing engine that extracts tabular data
// from word and pdf files.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	enabled    bool
}

const pingTimeout = 5 * time.Second

func closeBody(ctx context.Context, logg *logger.Logger, body io.Closer, msg string) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && logg != nil {
		logg.Warn(ctx, msg)
	}
}

func NewClient(ctx context.Context, cfg config.DocEngineConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Enabled {
		return &Client{enabled: false}, nil
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("doc engine base url is required when enabled")
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		apiKey:     cfg.APIKey,
		enabled:    true,
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("doc engine health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "doc engine client initialized")
	}

	return client, nil
}

// Enabled reports whether the remote engine is configured. When false, Parse
// returns no pages so callers fall back to their legacy path.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// Parse submits the raw file content and returns the extracted pages. An
// empty page list is a valid result meaning the engine found no tables.
func (c *Client) Parse(ctx context.Context, format string, content []byte) ([]Page, error) {
	if c == nil || !c.enabled {
		return nil, nil
	}
	if len(content) == 0 {
		return nil, errors.New("content is required")
	}

	body, err := json.Marshal(parseRequest{Format: format, Content: content})
	if err != nil {
		return nil, fmt.Errorf("encoding parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/parse", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling doc engine: %w", err)
	}
	defer closeBody(ctx, nil, resp.Body, "closing doc engine response")

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("doc engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding doc engine response: %w", err)
	}
	return doc.Pages, nil
}

// Ping verifies the engine is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("doc engine client not initialized")
	}
	if !c.enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("building ping request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinging doc engine: %w", err)
	}
	defer closeBody(ctx, nil, resp.Body, "closing doc engine ping response")

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("doc engine ping returned %d", resp.StatusCode)
	}
	return nil
}
