// Package export renders a draft into a shareable card artifact: a JSON
// card document plus a QR code PNG pointing at the card's public page, both
// uploaded to object storage.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tradecardhq/tradecard/pkg/qrcode"
	"github.com/tradecardhq/tradecard/svc/draft"
)

var ErrExportFailed = errors.New("export: failed to export card")

// Config holds export settings.
type Config struct {
	// CardBaseURL is the public page prefix encoded into QR codes,
	// e.g. https://cards.example.com/c
	CardBaseURL string `env:"EXPORT_CARD_BASE_URL,required"`
	QRSize      int    `env:"EXPORT_QR_SIZE" envDefault:"256"`
}

// Uploader stores an artifact and returns its public URL.
// Implemented by storage.S3Storage.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// Artifact is the result of an export.
type Artifact struct {
	CardURL   string    `json:"cardUrl"`
	QRCodeURL string    `json:"qrCodeUrl"`
	PageURL   string    `json:"pageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service exports drafts.
type Service struct {
	uploader Uploader
	cfg      Config
	now      func() time.Time
}

// NewService creates an export service. Panics if the uploader is nil.
func NewService(uploader Uploader, cfg Config) *Service {
	if uploader == nil {
		panic("export: Uploader is required")
	}
	if cfg.QRSize <= 0 {
		cfg.QRSize = 256
	}
	return &Service{uploader: uploader, cfg: cfg, now: time.Now}
}

// Export renders and uploads the card artifact for a draft. The JSON
// document carries everything a card page needs to render offline; the QR
// code points at the public page URL derived from the draft slug.
func (s *Service) Export(ctx context.Context, d *draft.Draft) (*Artifact, error) {
	pageURL := fmt.Sprintf("%s/%s", s.cfg.CardBaseURL, d.Slug)

	doc, err := json.Marshal(map[string]any{
		"id":          d.ID,
		"title":       d.Title,
		"slug":        d.Slug,
		"description": d.Description,
		"price":       d.Price,
		"photoUrls":   d.PhotoURLs,
		"cardContent": d.CardContent,
		"pageUrl":     pageURL,
		"exportedAt":  s.now().UTC(),
	})
	if err != nil {
		return nil, errors.Join(ErrExportFailed, err)
	}

	png, err := qrcode.Generate(pageURL, s.cfg.QRSize)
	if err != nil {
		return nil, errors.Join(ErrExportFailed, err)
	}

	prefix := fmt.Sprintf("exports/%s/%s", d.UserID, d.ID)
	cardURL, err := s.uploader.Upload(ctx, prefix+"/card.json", "application/json", doc)
	if err != nil {
		return nil, errors.Join(ErrExportFailed, err)
	}
	qrURL, err := s.uploader.Upload(ctx, prefix+"/qr.png", "image/png", png)
	if err != nil {
		return nil, errors.Join(ErrExportFailed, err)
	}

	return &Artifact{
		CardURL:   cardURL,
		QRCodeURL: qrURL,
		PageURL:   pageURL,
		CreatedAt: s.now().UTC(),
	}, nil
}
