package extract

import (
	"bytes"
	"context"

	"github.com/ledongthuc/pdf"
)

// PDFText pulls the embedded text layer out of a PDF. Image-only PDFs
// produce little or no text and fall through to the caller's threshold.
type PDFText struct{}

func (PDFText) Name() string { return "pdf" }

func (PDFText) Extract(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}

	return buf.String(), nil
}
