package extract

import (
	"context"
	"os"
)

// PlainText reads the file as UTF-8 text.
type PlainText struct{}

func (PlainText) Name() string { return "plain" }

func (PlainText) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
