// Package openaimedia converts audio and images to text through an
// OpenAI-compatible API.
package openaimedia

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/santiyeai/sitechief/internal/media"
)

// DefaultCaptionPrompt asks for a site safety and progress assessment.
const DefaultCaptionPrompt = "Bu bir inşaat şantiyesi fotoğrafı. İş güvenliği risklerini (baret, yelek, iskele, düşme tehlikesi) ve işin ilerleme durumunu kısa ve net Türkçe maddelerle değerlendir."

type transcriptionClient interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewClient builds an API client, or nil when apiKey is empty.
func NewClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return openai.NewClientWithConfig(cfg)
}

// Transcriber implements media.Transcriber with a Whisper-style endpoint.
type Transcriber struct {
	client   transcriptionClient
	model    string
	language string
}

// NewTranscriber creates a transcriber. A nil client reports ErrNotConfigured.
func NewTranscriber(client *openai.Client, model, language string) *Transcriber {
	t := &Transcriber{model: model, language: language}
	if client != nil {
		t.client = client
	}
	if t.model == "" {
		t.model = openai.Whisper1
	}
	return t
}

// Transcribe converts the audio file at path to text using the configured language hint.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	if t.client == nil {
		return "", media.ErrNotConfigured
	}
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
		Language: t.language,
	})
	if err != nil {
		return "", fmt.Errorf("create transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// Captioner implements media.Captioner with a vision-capable chat model.
type Captioner struct {
	client completionClient
	model  string
	prompt string
}

// NewCaptioner creates a captioner. A nil client reports ErrNotConfigured.
func NewCaptioner(client *openai.Client, model, prompt string) *Captioner {
	c := &Captioner{model: model, prompt: prompt}
	if client != nil {
		c.client = client
	}
	if strings.TrimSpace(c.prompt) == "" {
		c.prompt = DefaultCaptionPrompt
	}
	return c
}

// Caption sends the image at path inline as a data URL and returns the model's description.
func (c *Captioner) Caption(ctx context.Context, path, mime string) (string, error) {
	if c.client == nil {
		return "", media.ErrNotConfigured
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if strings.TrimSpace(mime) == "" {
		mime = "image/jpeg"
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: c.prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailAuto,
				}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("create caption: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty caption response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
