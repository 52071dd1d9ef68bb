// Package drive resolves the file payload behind an inbound change
// notification. Resolution is best-effort: the trigger degrades to a
// payload-less event when a fetch fails.
package drive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/rs/zerolog"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Fetcher resolves a file id into a payload.
type Fetcher interface {
	FetchFile(ctx context.Context, fileID string) (*domain.FilePayload, error)
}

// Google Workspace documents cannot be downloaded raw; they are
// exported into a text representation instead.
var exportMimeTypes = map[string]string{
	"application/vnd.google-apps.document":     "text/plain",
	"application/vnd.google-apps.spreadsheet":  "text/csv",
	"application/vnd.google-apps.presentation": "text/plain",
}

type driveFetcher struct {
	svc *drivev3.Service
}

// NewFetcher builds a Fetcher on the Drive v3 API. Options carry
// authentication (token source) and, in tests, a local endpoint.
func NewFetcher(ctx context.Context, opts ...option.ClientOption) (Fetcher, error) {
	svc, err := drivev3.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &driveFetcher{svc: svc}, nil
}

func (f *driveFetcher) FetchFile(ctx context.Context, fileID string) (*domain.FilePayload, error) {
	meta, err := f.svc.Files.Get(fileID).
		Fields("id,name,mimeType,size,modifiedTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get file metadata: %w", err)
	}

	payload := &domain.FilePayload{
		ID:       meta.Id,
		Name:     meta.Name,
		MimeType: meta.MimeType,
	}
	if meta.ModifiedTime != "" {
		if t, err := time.Parse(time.RFC3339, meta.ModifiedTime); err == nil {
			payload.ModifiedTime = t
		}
	}

	switch {
	case exportMimeTypes[meta.MimeType] != "":
		content, err := f.export(ctx, fileID, exportMimeTypes[meta.MimeType])
		if err != nil {
			return nil, err
		}
		payload.Content = content

	case strings.HasPrefix(meta.MimeType, "text/") || meta.MimeType == "application/json":
		content, err := f.download(ctx, fileID)
		if err != nil {
			return nil, err
		}
		payload.Content = content

	default:
		// Binary files are referenced by link only.
		payload.DownloadURL = fmt.Sprintf("https://drive.google.com/file/d/%s/view", fileID)
		payload.Content = fmt.Sprintf("File: %s\nType: %s\nSize: %d bytes\nDownload: %s",
			meta.Name, meta.MimeType, meta.Size, payload.DownloadURL)
	}

	zerolog.Ctx(ctx).Debug().
		Str("file", fileID).
		Str("mime_type", meta.MimeType).
		Msg("resolved trigger file payload")
	return payload, nil
}

func (f *driveFetcher) export(ctx context.Context, fileID, mimeType string) (string, error) {
	resp, err := f.svc.Files.Export(fileID, mimeType).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("export file: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read export: %w", err)
	}
	return string(raw), nil
}

func (f *driveFetcher) download(ctx context.Context, fileID string) (string, error) {
	resp, err := f.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read download: %w", err)
	}
	return string(raw), nil
}
