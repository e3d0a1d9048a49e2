package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Markers returned by ToText when a converter is missing or fails.
const (
	TranscriptionFailedText = "(ses çözümlenemedi)"
	CaptionFailedText       = "(görsel analiz edilemedi)"
	SheetFailedText         = "❌ Hata: Excel dosyası işlenemedi."
)

// Resolver downloads platform media and converts it to text.
type Resolver struct {
	fetcher     Fetcher
	transcriber Transcriber
	captioner   Captioner
	sheets      SheetParser
	spool       *Spool
	maxBytes    int64
	logger      *slog.Logger
}

// ResolverDeps groups the converters used by Resolver. Any of them may be nil.
type ResolverDeps struct {
	Fetcher     Fetcher
	Transcriber Transcriber
	Captioner   Captioner
	Sheets      SheetParser
	Spool       *Spool
	MaxBytes    int64
}

// NewResolver creates a media resolver.
func NewResolver(log *slog.Logger, deps ResolverDeps) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	maxBytes := deps.MaxBytes
	if maxBytes <= 0 {
		maxBytes = MaxAssetBytes
	}
	return &Resolver{
		fetcher:     deps.Fetcher,
		transcriber: deps.Transcriber,
		captioner:   deps.Captioner,
		sheets:      deps.Sheets,
		spool:       deps.Spool,
		maxBytes:    maxBytes,
		logger:      log.With(slog.String("service", "media")),
	}
}

// Download fetches ref into the spool. Every failure wraps ErrDownloadFailed.
func (r *Resolver) Download(ctx context.Context, ref Reference) (Payload, error) {
	if r.fetcher == nil || r.spool == nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrDownloadFailed, ErrNotConfigured)
	}
	if strings.TrimSpace(ref.ID) == "" {
		return Payload{}, fmt.Errorf("%w: media id is required", ErrDownloadFailed)
	}
	body, mime, err := r.fetcher.Fetch(ctx, ref.ID)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer body.Close()

	if strings.TrimSpace(ref.Mime) != "" {
		mime = ref.Mime
	}
	path, size, err := r.spool.Write(body, r.maxBytes, extensionFor(mime, ref.Filename))
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	return Payload{Path: path, Mime: mime, Filename: ref.Filename, Size: size}, nil
}

// ToText converts a downloaded payload according to kind. It never fails;
// missing credentials and provider errors produce a fixed marker.
func (r *Resolver) ToText(ctx context.Context, payload Payload, kind Kind, tenantID string) string {
	switch kind {
	case KindAudio:
		if r.transcriber == nil {
			return TranscriptionFailedText
		}
		text, err := r.transcriber.Transcribe(ctx, payload.Path)
		if err != nil || strings.TrimSpace(text) == "" {
			r.logger.Warn("transcription failed", slog.Any("error", err))
			return TranscriptionFailedText
		}
		return strings.TrimSpace(text)
	case KindImage:
		if r.captioner == nil {
			return CaptionFailedText
		}
		text, err := r.captioner.Caption(ctx, payload.Path, payload.Mime)
		if err != nil || strings.TrimSpace(text) == "" {
			r.logger.Warn("caption failed", slog.Any("error", err))
			return CaptionFailedText
		}
		return strings.TrimSpace(text)
	case KindDocument:
		if r.sheets == nil {
			return SheetFailedText
		}
		return r.sheets.Import(ctx, payload.Path, tenantID)
	default:
		return ""
	}
}

// Convert downloads ref, converts it and always removes the local copy.
// Only download failures are returned as errors.
func (r *Resolver) Convert(ctx context.Context, ref Reference, kind Kind, tenantID string) (string, error) {
	payload, err := r.Download(ctx, ref)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := r.spool.Remove(payload.Path); err != nil {
			r.logger.Warn("remove spooled media", slog.String("path", payload.Path), slog.Any("error", err))
		}
	}()
	return r.ToText(ctx, payload, kind, tenantID), nil
}
