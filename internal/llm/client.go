// Package llm provides the remote generative-model client with model-candidate
// failover and bounded retry on rate-limit failures.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Attachment is binary content (e.g. an audio recording) inlined into a
// generation request.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Config holds everything the client needs, passed in explicitly so tests can
// run against fake endpoints: credential, candidate model list (most capable
// first), and the retry/backoff policy for rate-limit failures.
type Config struct {
	APIKey      string
	Models      []string
	MaxAttempts int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	Timeout     time.Duration
}

// callFunc issues a single generation request against one model.
type callFunc func(ctx context.Context, model, prompt string, att *Attachment) (string, error)

// Client calls a remote generative-text model. Two failure policies are
// nested: a rate-limited model is retried with exponential backoff before
// being abandoned (transient over-quota), and an exhausted or unavailable
// model is replaced by the next candidate in the list (permanent failure).
type Client struct {
	cfg    Config
	logger *zap.Logger
	genai  *genai.Client

	// call and sleep are swapped out in tests.
	call  callFunc
	sleep func(time.Duration)
}

// NewClient creates a client for the configured model candidates. A missing
// API key does not fail construction; every Generate call then returns a
// classified failure so callers degrade instead of crashing.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{cfg: cfg, logger: logger, sleep: time.Sleep}
	if cfg.APIKey == "" {
		logger.Warn("no model API credential configured, generation is disabled")
		c.call = func(context.Context, string, string, *Attachment) (string, error) {
			return "", ErrNoCredential
		}
		return c, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.genai = client
	c.call = c.callGemini
	return c, nil
}

// Generate runs the prompt (with an optional inline attachment) through the
// candidate models in order and returns the first successful response text.
// The terminal error wraps the last model's failure, so IsRateLimit still
// classifies an all-candidates-over-quota exhaustion.
func (c *Client) Generate(ctx context.Context, prompt string, att *Attachment) (string, error) {
	if len(c.cfg.Models) == 0 {
		return "", errors.New("no candidate models configured")
	}
	var lastErr error
	for _, model := range c.cfg.Models {
		text, err := c.generateWithRetry(ctx, model, prompt, att)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.logger.Warn("model candidate exhausted, failing over",
			zap.String("model", model),
			zap.Error(err),
		)
	}
	return "", fmt.Errorf("all model candidates exhausted: %w", lastErr)
}

// generateWithRetry calls one model, retrying only rate-limit failures. The
// delay starts at BackoffBase, doubles per attempt, and is capped at
// BackoffCap; at most MaxAttempts calls are made. Any other failure returns
// immediately so the caller can fail over.
func (c *Client) generateWithRetry(ctx context.Context, model, prompt string, att *Attachment) (string, error) {
	delay := c.cfg.BackoffBase
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		text, err := c.call(callCtx, model, prompt, att)
		cancel()
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !IsRateLimit(err) {
			return "", err
		}
		if attempt < c.cfg.MaxAttempts {
			c.logger.Warn("rate limited, backing off",
				zap.String("model", model),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			c.sleep(delay)
			delay *= 2
			if delay > c.cfg.BackoffCap {
				delay = c.cfg.BackoffCap
			}
		}
	}
	return "", lastErr
}

func (c *Client) callGemini(ctx context.Context, model, prompt string, att *Attachment) (string, error) {
	m := c.genai.GenerativeModel(model)
	parts := []genai.Part{genai.Text(prompt)}
	if att != nil {
		parts = append(parts, genai.Blob{MIMEType: att.MIMEType, Data: att.Data})
	}
	rsp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil || len(rsp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty model response")
	}
	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

// Close closes the underlying client, if one was created.
func (c *Client) Close() error {
	if c.genai != nil {
		return c.genai.Close()
	}
	return nil
}
