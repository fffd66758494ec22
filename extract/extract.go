// Package extract turns uploaded files into plain text. Each supported
// extension maps to an ordered list of strategies; the first strategy whose
// output reaches the acceptance threshold wins, otherwise the last error is
// propagated.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// acceptLength is the minimum number of non-whitespace characters a
// strategy must produce before the chain stops trying alternatives.
const acceptLength = 50

type Strategy interface {
	Name() string
	Extract(ctx context.Context, path string) (string, error)
}

type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
	Supports(path string) bool
}

type chain struct {
	strategies map[string][]Strategy
	log        *zap.Logger
}

// NewExtractor builds the default chain: plain text, PDF, DOCX and
// OCR-backed images.
func NewExtractor() Extractor {
	ocr := TesseractOCR{}

	return &chain{
		strategies: map[string][]Strategy{
			".txt":  {PlainText{}},
			".md":   {PlainText{}},
			".pdf":  {PDFText{}},
			".docx": {DocxText{}},
			".png":  {ocr},
			".jpg":  {ocr},
			".jpeg": {ocr},
		},
		log: zap.L().With(zap.String("component", "extractor")),
	}
}

func (c *chain) Supports(path string) bool {
	_, ok := c.strategies[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (c *chain) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	strategies, ok := c.strategies[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	log := c.log.With(
		zap.String("path", path),
	)

	var (
		best    string
		lastErr error
	)

	for _, strategy := range strategies {
		text, err := strategy.Extract(ctx, path)
		if err != nil {
			log.Warn("extraction strategy failed",
				zap.String("strategy", strategy.Name()),
				zap.Error(err),
			)

			lastErr = err
			continue
		}

		text = Normalize(text)
		if CountNonWhitespace(text) >= acceptLength {
			log.Info("text extracted",
				zap.String("strategy", strategy.Name()),
				zap.Int("length", len(text)),
			)

			return text, nil
		}

		// Below the acceptance threshold; keep the longest attempt in
		// case no strategy does better.
		if CountNonWhitespace(text) > CountNonWhitespace(best) {
			best = text
		}
	}

	if best == "" && lastErr != nil {
		return "", lastErr
	}

	// Best effort; the caller applies its own minimum-length check.
	return best, nil
}

var (
	multiSpace   = regexp.MustCompile(`[ \t]+`)
	multiNewline = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// Normalize collapses runs of spaces and excess blank lines.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = multiSpace.ReplaceAllString(text, " ")
	text = multiNewline.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// CountNonWhitespace reports how many characters carry content.
func CountNonWhitespace(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}

	return n
}
