package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

type TextIngester struct {
	fs afero.Fs
}

func NewTextIngester(fs afero.Fs) *TextIngester {
	return &TextIngester{fs: fs}
}

func (t *TextIngester) Ingest(ctx context.Context, source string) (*Content, error) {
	if err := validateFile(t.fs, source); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(t.fs, source)
	if err != nil {
		return nil, fmt.Errorf("could not read file %s: %w", source, err)
	}

	return newContent(string(data), filepath.Base(source))
}

// ReaderIngester reads a script from a stream such as stdin.
type ReaderIngester struct {
	r    io.Reader
	name string
}

func (i *ReaderIngester) Ingest(ctx context.Context, source string) (*Content, error) {
	if i.r == nil {
		return nil, fmt.Errorf("no %s to read from", i.name)
	}
	data, err := io.ReadAll(io.LimitReader(i.r, maxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", i.name, err)
	}
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("%s is too large (max %d MB)", i.name, maxInputSize/(1024*1024))
	}
	return newContent(string(data), i.name)
}
