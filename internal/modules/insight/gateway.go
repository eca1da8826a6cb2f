package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/config"
	"go.uber.org/zap"
)

var (
	// ErrGatewayTimeout maps the wall-clock cutoff to actionable advice.
	ErrGatewayTimeout = errors.New("request timed out, please shorten the transcript and retry")
	// ErrEmptyResult rejects blank completions so they never become a version.
	ErrEmptyResult = errors.New("empty AI result, please retry")
)

// GatewayMessage is one turn in the completion request, roles system,
// user or assistant.
type GatewayMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Gateway is the completion surface the workflow depends on. Tests swap in
// a recording fake.
type Gateway interface {
	Complete(ctx context.Context, systemPrompt string, messages []GatewayMessage, temperature float64) (string, error)
}

// GatewayClient talks to an OpenAI-compatible chat-completions endpoint.
// It never retries; a failure is always surfaced for the user to re-trigger.
type GatewayClient struct {
	endpoint   string
	apiKey     string
	model      string
	maxTokens  int
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

func NewGatewayClient(cfg config.GatewayConfig, logger *zap.Logger) *GatewayClient {
	return &GatewayClient{
		endpoint:  normalizeGatewayEndpoint(cfg.Endpoint),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		model:     strings.TrimSpace(cfg.Model),
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.RequestTimeout(),
		// Timeout is enforced per request through the context, not here.
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (g *GatewayClient) Complete(ctx context.Context, systemPrompt string, messages []GatewayMessage, temperature float64) (string, error) {
	payload := make([]GatewayMessage, 0, len(messages)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		payload = append(payload, GatewayMessage{Role: "system", Content: systemPrompt})
	}
	payload = append(payload, messages...)

	body, err := json.Marshal(map[string]interface{}{
		"model":       g.model,
		"messages":    payload,
		"temperature": temperature,
		"max_tokens":  g.maxTokens,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			g.logger.Warn("gateway call timed out", zap.Duration("elapsed", time.Since(started)))
			return "", ErrGatewayTimeout
		}
		return "", fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrGatewayTimeout
		}
		return "", err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", errors.New(gatewayErrorMessage(resp.StatusCode, respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("gateway returned malformed response: %w", err)
	}
	if result.Error != nil && strings.TrimSpace(result.Error.Message) != "" {
		return "", errors.New(result.Error.Message)
	}
	if len(result.Choices) == 0 {
		if strings.TrimSpace(result.Message) != "" {
			return "", errors.New(result.Message)
		}
		return "", ErrEmptyResult
	}
	content := result.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResult
	}

	g.logger.Debug("gateway call completed",
		zap.Int("messages", len(payload)),
		zap.Duration("elapsed", time.Since(started)))
	return content, nil
}

// gatewayErrorMessage digs a human-readable message out of an error body,
// falling back to a generic status line.
func gatewayErrorMessage(status int, body []byte) string {
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != nil && strings.TrimSpace(parsed.Error.Message) != "" {
			return parsed.Error.Message
		}
		if strings.TrimSpace(parsed.Message) != "" {
			return parsed.Message
		}
	}
	return fmt.Sprintf("gateway error %d", status)
}

func normalizeGatewayEndpoint(raw string) string {
	base := strings.TrimSpace(raw)
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		cleaned := strings.TrimRight(base, "/")
		return strings.TrimSuffix(cleaned, "/v1")
	}
	path := strings.TrimRight(parsed.Path, "/")
	path = strings.TrimSuffix(path, "/v1")
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}
