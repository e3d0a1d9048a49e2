package media

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// Kind is the normalized class of an inbound message.
type Kind string

const (
	KindText        Kind = "text"
	KindAudio       Kind = "audio"
	KindImage       Kind = "image"
	KindDocument    Kind = "document"
	KindUnsupported Kind = "unsupported"
)

// Reference identifies platform-hosted media.
type Reference struct {
	ID       string `json:"id"`
	Mime     string `json:"mime_type,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Payload is a downloaded media file spooled to local disk.
type Payload struct {
	Path     string
	Mime     string
	Filename string
	Size     int64
}

// Fetcher resolves a media id to its bytes. Implementations perform the
// platform's authenticated lookup before fetching the content.
type Fetcher interface {
	Fetch(ctx context.Context, mediaID string) (io.ReadCloser, string, error)
}

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Captioner describes an image file.
type Captioner interface {
	Caption(ctx context.Context, path, mime string) (string, error)
}

// SheetParser turns a spreadsheet into a human-readable summary for a tenant.
// It reports validation problems in the returned text.
type SheetParser interface {
	Import(ctx context.Context, path, tenantID string) string
}

// Classify maps a declared platform message type to a Kind. Documents are
// accepted only when they are spreadsheets.
func Classify(messageType string, ref *Reference) Kind {
	switch strings.ToLower(strings.TrimSpace(messageType)) {
	case "text":
		return KindText
	case "audio", "voice":
		return KindAudio
	case "image":
		return KindImage
	case "document":
		if ref != nil && IsSpreadsheet(ref.Mime, ref.Filename) {
			return KindDocument
		}
		return KindUnsupported
	default:
		return KindUnsupported
	}
}

// IsSpreadsheet reports whether mime or filename denote an xlsx workbook.
func IsSpreadsheet(mime, filename string) bool {
	if strings.Contains(strings.ToLower(mime), "sheet") {
		return true
	}
	return strings.EqualFold(filepath.Ext(strings.TrimSpace(filename)), ".xlsx")
}

func extensionFor(mime, filename string) string {
	if ext := filepath.Ext(strings.TrimSpace(filename)); ext != "" && !strings.ContainsAny(ext, `/\`) {
		return strings.ToLower(ext)
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	switch mime {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	case "audio/mp4", "audio/aac":
		return ".m4a"
	case "audio/amr":
		return ".amr"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return ".xlsx"
	default:
		return ".bin"
	}
}
