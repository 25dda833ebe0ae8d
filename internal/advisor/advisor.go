// Package advisor asks an LLM for a trading decision based on a market
// snapshot and recent ledger history. Its output is never trusted raw:
// the response is parsed and validated before it can reach the order
// path, and anything malformed is an error the caller maps to hold.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"CoinPilot/internal/ledger"
	"CoinPilot/internal/model"
)

const defaultBaseURL = "https://api.openai.com"

// Client talks to the OpenAI chat completions API.
type Client struct {
	APIKey   string
	Model    string
	BaseURL  string
	HTTP     *http.Client
	validate *validator.Validate
}

// NewClient creates an advisor client. model may be empty for the
// default.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = "gpt-4o"
	}
	return &Client{
		APIKey:   apiKey,
		Model:    model,
		BaseURL:  defaultBaseURL,
		HTTP:     &http.Client{Timeout: 90 * time.Second},
		validate: validator.New(),
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

func (c *Client) chat(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completion: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Decide submits the snapshot, recent trades, and reflection, and
// returns the model's validated decision.
func (c *Client) Decide(ctx context.Context, snap *model.MarketSnapshot, recent []ledger.TradeRecord, reflection string) (model.Decision, error) {
	prompt, err := buildDecisionPrompt(snap, recent, reflection)
	if err != nil {
		return model.Hold(), err
	}
	text, err := c.chat(ctx, prompt)
	if err != nil {
		return model.Hold(), err
	}
	return c.ParseDecision(text)
}

// Reflect generates a short retrospective on recent performance, stored
// alongside the next trade record.
func (c *Client) Reflect(ctx context.Context, recent []ledger.TradeRecord, snap *model.MarketSnapshot) (string, error) {
	prompt, err := buildReflectionPrompt(recent, snap)
	if err != nil {
		return "", err
	}
	return c.chat(ctx, prompt)
}
