package openaimedia

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/santiyeai/sitechief/internal/media"
)

type fakeAudio struct {
	req openai.AudioRequest
}

func (f *fakeAudio) CreateTranscription(_ context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	f.req = req
	return openai.AudioResponse{Text: " iskele sağlam "}, nil
}

type fakeChat struct {
	req openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "Baret yok."}}},
	}, nil
}

func TestTranscriberUsesLanguageHint(t *testing.T) {
	t.Parallel()

	fa := &fakeAudio{}
	tr := &Transcriber{client: fa, model: openai.Whisper1, language: "tr"}
	got, err := tr.Transcribe(context.Background(), "/tmp/a.ogg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "iskele sağlam" {
		t.Fatalf("unexpected text: %q", got)
	}
	if fa.req.Language != "tr" || fa.req.FilePath != "/tmp/a.ogg" || fa.req.Model != openai.Whisper1 {
		t.Fatalf("unexpected request: %+v", fa.req)
	}
}

func TestCaptionerSendsDataURL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "site.png")
	if err := os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc := &fakeChat{}
	c := &Captioner{client: fc, model: "gpt-4o-mini", prompt: DefaultCaptionPrompt}

	got, err := c.Caption(context.Background(), path, "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Baret yok." {
		t.Fatalf("unexpected caption: %q", got)
	}
	parts := fc.req.Messages[0].MultiContent
	if len(parts) != 2 || parts[0].Text != DefaultCaptionPrompt {
		t.Fatalf("unexpected parts: %+v", parts)
	}
	if parts[1].ImageURL == nil || !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,") {
		t.Fatalf("expected data url, got %+v", parts[1].ImageURL)
	}
}

func TestUnconfiguredProviders(t *testing.T) {
	t.Parallel()

	if NewClient("", "", 0) != nil {
		t.Fatalf("expected nil client without key")
	}
	if _, err := NewTranscriber(nil, "", "tr").Transcribe(context.Background(), "x"); !errors.Is(err, media.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := NewCaptioner(nil, "", "").Caption(context.Background(), "x", ""); !errors.Is(err, media.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
