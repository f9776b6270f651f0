package invoice

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/invoice-vision/invoice-vision/internal/extraction"
)

// Service handles invoice processing. It holds only the extractor handle;
// nothing is retained between requests.
type Service struct {
	extractor extraction.Extractor
}

// NewService creates a new Service
func NewService(extractor extraction.Extractor) *Service {
	return &Service{
		extractor: extractor,
	}
}

// ProcessInvoice decodes the base64-encoded images and extracts the
// structured invoice data from them
func (s *Service) ProcessInvoice(b64Images []string) (*extraction.Invoice, error) {
	slog.Info("Starting invoice extraction", "images", len(b64Images))

	images := make([][]byte, 0, len(b64Images))
	for _, b64 := range b64Images {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
		images = append(images, data)
	}

	// Sniffed from the first page; the UI sends JPEG/PNG but the
	// extractor also handles PDF and HEIC uploads
	contentType := "image/jpeg"
	if len(images) > 0 && len(images[0]) > 0 {
		contentType = http.DetectContentType(images[0])
	}

	invoice, err := s.extractor.Extract(images, contentType)
	if err != nil {
		slog.Error("Failed to extract invoice",
			"content_type", contentType,
			"images", len(images),
			"error", err,
		)
		return nil, fmt.Errorf("extracting invoice: %w", err)
	}

	slog.Info("Invoice extraction completed", "products", len(invoice.Products))
	return invoice, nil
}
