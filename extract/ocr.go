package extract

import (
	"context"
	"fmt"
	"os/exec"
)

// TesseractOCR shells out to the tesseract binary for image files. The
// binary must be on PATH; its absence is an extraction error for that call,
// not a startup failure.
type TesseractOCR struct{}

func (TesseractOCR) Name() string { return "tesseract" }

func (TesseractOCR) Extract(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "tesseract", path, "stdout")

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}

	return string(out), nil
}
