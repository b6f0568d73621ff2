package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ollama implements the Service interface using a local Ollama server.
// Recommended vision models, in order: llava:1.6, llava:latest,
// qwen2-vl:7b, bakllava.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
	horizon time.Duration
	now     func() time.Time
}

// NewOllama creates a new Ollama Service instance.
func NewOllama(baseURL, modelName string, dateHorizon time.Duration) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}

	return &Ollama{
		baseURL: baseURL,
		model:   modelName,
		client: &http.Client{
			// Local vision models can be slow.
			Timeout: 120 * time.Second,
		},
		horizon: dateHorizon,
		now:     time.Now,
	}, nil
}

// ollamaChatRequest represents the request body for Ollama's chat API.
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Images   []string        `json:"images,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaChatResponse represents the response from Ollama's chat API.
type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// generate sends one frame image plus a prompt through the chat API and
// returns the model's text response.
func (o *Ollama) generate(ctx context.Context, image []byte, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: "You are an expert at reading retail receipts. Carefully read all text in the image and answer with exactly the format requested.",
			},
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Images: []string{base64.StdEncoding.EncodeToString(image)},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return strings.TrimSpace(chatResp.Message.Content), nil
}

// ExtractItems returns the raw line items visible in one frame.
func (o *Ollama) ExtractItems(ctx context.Context, image []byte) ([]Item, error) {
	text, err := o.generate(ctx, image, itemsPrompt)
	if err != nil {
		return nil, err
	}
	return parseItems(text), nil
}

// ExtractDate returns the receipt date visible in one frame.
func (o *Ollama) ExtractDate(ctx context.Context, image []byte) (string, error) {
	text, err := o.generate(ctx, image, datePrompt)
	if err != nil {
		return "", err
	}
	return parseDate(text, o.now(), o.horizon), nil
}

// Close closes the Ollama client (no-op for HTTP client).
func (o *Ollama) Close() error {
	return nil
}
