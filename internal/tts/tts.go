package tts

import (
	"context"
	"fmt"
	"io"
)

// Synthesizer turns one SSML document into audio.
type Synthesizer interface {
	// Synthesize sends doc and copies the audio it gets back into sink as
	// it arrives. It returns the number of bytes written to sink.
	Synthesize(ctx context.Context, doc string, sink io.Writer) (int64, error)
}

// SynthesizerFunc adapts a plain function to Synthesizer.
type SynthesizerFunc func(ctx context.Context, doc string, sink io.Writer) (int64, error)

func (f SynthesizerFunc) Synthesize(ctx context.Context, doc string, sink io.Writer) (int64, error) {
	return f(ctx, doc, sink)
}

// APIError is a non-2xx answer from the speech service. It is not retried.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("speech API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("speech API error (status %d): %s", e.StatusCode, e.Body)
}
