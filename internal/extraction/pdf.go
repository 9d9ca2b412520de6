// Package extraction turns invoice PDFs into structured field previews
// using a vision-capable chat model.
package extraction

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	"github.com/gen2brain/go-fitz"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain/entity"
)

// Rendering limits. Invoices beyond these are rejected before any API
// call is spent on them.
const (
	maxFileSizeBytes = 20 * 1024 * 1024
	maxPages         = 10
)

// renderPDF validates the file and renders each page to PNG for the
// vision API. Failures come back as classified extraction errors.
func renderPDF(path string) ([][]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &port.ExtractionError{
			ErrorType: entity.ErrorTypeUnreadable,
			Message:   fmt.Sprintf("cannot read file: %v", err),
		}
	}
	if info.Size() > maxFileSizeBytes {
		return nil, &port.ExtractionError{
			ErrorType: entity.ErrorTypeFileTooLarge,
			Message:   fmt.Sprintf("file is %d bytes, limit is %d", info.Size(), maxFileSizeBytes),
		}
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, &port.ExtractionError{
			ErrorType: entity.ErrorTypeUnreadable,
			Message:   fmt.Sprintf("cannot open PDF: %v", err),
		}
	}
	defer doc.Close()

	if doc.NumPage() > maxPages {
		return nil, &port.ExtractionError{
			ErrorType: entity.ErrorTypeTooManyPages,
			Message:   fmt.Sprintf("document has %d pages, limit is %d", doc.NumPage(), maxPages),
		}
	}

	pages := make([][]byte, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.Image(n)
		if err != nil {
			return nil, &port.ExtractionError{
				ErrorType: entity.ErrorTypeUnreadable,
				Message:   fmt.Sprintf("cannot render page %d: %v", n+1, err),
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", n+1, err)
		}
		pages = append(pages, buf.Bytes())
	}
	return pages, nil
}
