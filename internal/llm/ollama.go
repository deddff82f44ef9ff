// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm talks to the Ollama model-serving host: chat completion,
// token streaming, embeddings and the keep-alive unload directive.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/topic-brainstorm/internal/logger"
	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one chat call.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	// Format is "" for free text or "json" to constrain output to JSON.
	Format string
	// KeepAlive controls residency after the call (e.g. "5m"). Empty uses the server default.
	KeepAlive string
}

// UserPrompt wraps a single prompt as the only user message.
func UserPrompt(prompt string) []Message {
	return []Message{{Role: "user", Content: prompt}}
}

// Completer returns a complete model response.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Streamer delivers the response token by token. onToken is called for each
// non-empty fragment in order; returning an error stops the stream. The
// full text is returned.
type Streamer interface {
	Stream(ctx context.Context, req Request, onToken func(token string) error) (string, error)
}

// Embedder embeds texts with a fixed model.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Unloader asks the host to evict a model from memory.
type Unloader interface {
	Unload(ctx context.Context, model string) error
}

// Client is an Ollama HTTP client. It implements Completer, Streamer and
// Unloader; Embedder returns a model-bound Embedder.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	log     *logger.Logger
}

// NewClient builds a client for cfg.BaseURL. Non-streaming calls honour
// cfg.Timeout; streaming calls are bounded only by their context.
func NewClient(cfg types.OllamaConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		stream:  &http.Client{},
		log:     log.With("component", "ollama"),
	}
}

// BaseURL returns the host the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

type chatRequest struct {
	Model     string         `json:"model"`
	Messages  []Message      `json:"messages"`
	Stream    bool           `json:"stream"`
	Format    string         `json:"format,omitempty"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

func newChatRequest(req Request, stream bool) chatRequest {
	return chatRequest{
		Model:     req.Model,
		Messages:  req.Messages,
		Stream:    stream,
		Format:    req.Format,
		KeepAlive: req.KeepAlive,
		Options:   map[string]any{"temperature": req.Temperature},
	}
}

// Complete sends a non-streaming chat request and returns the message content.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.post(ctx, c.http, "/api/chat", newChatRequest(req, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if cr.Error != "" {
		return "", fmt.Errorf("ollama: %s", cr.Error)
	}
	c.log.Debug("chat completed", "model", req.Model, "chars", len(cr.Message.Content))
	return cr.Message.Content, nil
}

// Stream sends a streaming chat request. Ollama answers with one JSON object
// per line; the final object has done=true.
func (c *Client) Stream(ctx context.Context, req Request, onToken func(string) error) (string, error) {
	resp, err := c.post(ctx, c.stream, "/api/chat", newChatRequest(req, true))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk chatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return full.String(), fmt.Errorf("decoding stream chunk: %w", err)
		}
		if chunk.Error != "" {
			return full.String(), fmt.Errorf("ollama: %s", chunk.Error)
		}
		if tok := chunk.Message.Content; tok != "" {
			full.WriteString(tok)
			if onToken != nil {
				if err := onToken(tok); err != nil {
					return full.String(), err
				}
			}
		}
		if chunk.Done {
			return full.String(), nil
		}
	}
	if err := sc.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return full.String(), ctxErr
		}
		return full.String(), fmt.Errorf("reading stream: %w", err)
	}
	return full.String(), nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// EmbedWith embeds texts using model.
func (c *Client) EmbedWith(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.post(ctx, c.http, "/api/embed", embedRequest{Model: model, Input: texts})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}
	if er.Error != "" {
		return nil, fmt.Errorf("ollama: %s", er.Error)
	}
	if len(er.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(er.Embeddings), len(texts))
	}
	for i, e := range er.Embeddings {
		if len(e) == 0 {
			return nil, fmt.Errorf("ollama returned empty embedding for input %d", i)
		}
	}
	return er.Embeddings, nil
}

// Embedder returns an Embedder bound to model.
func (c *Client) Embedder(model string) Embedder {
	return &modelEmbedder{client: c, model: model}
}

type modelEmbedder struct {
	client *Client
	model  string
}

func (m *modelEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return m.client.EmbedWith(ctx, m.model, texts)
}

// Unload sends a generate request with keep_alive 0, which makes the host
// evict model immediately. An empty model name is a no-op.
func (c *Client) Unload(ctx context.Context, model string) error {
	if model == "" {
		return nil
	}
	body := map[string]any{"model": model, "keep_alive": 0}
	resp, err := c.post(ctx, c.http, "/api/generate", body)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

func (c *Client) post(ctx context.Context, hc *http.Client, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("calling ollama %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("ollama %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}
