package narrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/savonet/ai-radio/internal/config"
)

// Client talks to an OpenAI-compatible API: chat completions for narration
// text and speech synthesis for the audio. Pure request/response, no state
// beyond configuration.
type Client struct {
	baseURL   string
	apiKey    string
	chatModel string
	ttsModel  string
	voice     string
	format    string
	speed     float64
	http      *http.Client
}

// NewClient creates a client for the endpoints under cfg.APIURL.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.APIURL, "/"),
		apiKey:    cfg.APIKey,
		chatModel: cfg.ChatModel,
		ttsModel:  cfg.TTSModel,
		voice:     cfg.TTSVoice,
		format:    cfg.TTSFormat,
		speed:     cfg.TTSSpeed,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// ChatCompletion sends the prompt to the text-generation service and returns
// the narration text. The reply must carry exactly one choice.
func (c *Client) ChatCompletion(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError("chat", resp)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(parsed.Choices) != 1 {
		return "", fmt.Errorf("%w: got %d choices", ErrMalformedResponse, len(parsed.Choices))
	}
	text := parsed.Choices[0].Message.Content
	if text == "" {
		return "", fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}
	return text, nil
}

// Speech synthesizes text into a new uniquely named temporary audio file and
// returns its path. The response body streams straight to disk as it
// arrives; a failed copy leaves the partial file behind.
func (c *Client) Speech(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(speechRequest{
		Model:          c.ttsModel,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: c.format,
		Speed:          c.speed,
	})
	if err != nil {
		return "", fmt.Errorf("marshal speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError("speech", resp)
	}

	tmp, err := os.CreateTemp("", "ai-radio-dj-*."+c.format)
	if err != nil {
		return "", fmt.Errorf("create narration file: %w", err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write narration: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close narration file: %w", err)
	}
	return tmp.Name(), nil
}

// apiError drains up to 4 KB of a failed response for the logs.
func apiError(service string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
