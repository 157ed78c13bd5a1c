package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
)

type SourceType string

const (
	SourceFile  SourceType = "file"
	SourceStdin SourceType = "stdin"

	// maxInputSize is the maximum allowed size for an input script (25 MB).
	maxInputSize = 25 * 1024 * 1024
)

func (s SourceType) String() string {
	return string(s)
}

type Content struct {
	Text      string
	Title     string
	Source    string
	WordCount int
}

type Ingester interface {
	Ingest(ctx context.Context, source string) (*Content, error)
}

func DetectSource(input string) SourceType {
	if input == "-" {
		return SourceStdin
	}
	return SourceFile
}

// NewIngester picks an ingester for input. stdin is only read for "-".
func NewIngester(fs afero.Fs, stdin io.Reader, input string) Ingester {
	switch DetectSource(input) {
	case SourceStdin:
		return &ReaderIngester{r: stdin, name: "stdin"}
	default:
		return &TextIngester{fs: fs}
	}
}

func newContent(text, source string) (*Content, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%s is not valid UTF-8 text", source)
	}
	return &Content{
		Text:      text,
		Title:     titleFromText(text, 80),
		Source:    source,
		WordCount: wordCount(text),
	}, nil
}

func wordCount(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inWord = false
		} else if !inWord {
			inWord = true
			count++
		}
	}
	return count
}

func titleFromText(text string, maxLen int) string {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx > 0 {
		line = text[:idx]
	}
	line = strings.TrimSpace(line)
	if len(line) > maxLen {
		line = line[:maxLen] + "..."
	}
	if line == "" {
		return "Untitled"
	}
	return line
}

func validateFile(fs afero.Fs, path string) error {
	info, err := fs.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() > maxInputSize {
		return fmt.Errorf("%s is too large (%d MB, max %d MB)", path, info.Size()/(1024*1024), maxInputSize/(1024*1024))
	}
	return nil
}
