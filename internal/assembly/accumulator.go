package assembly

import (
	"bytes"
	"io"
)

// Accumulator collects synthesized audio in segment order. Chunks are
// concatenated as-is; the output codec must tolerate that (MP3 frames do).
// It is not safe for concurrent use.
type Accumulator struct {
	buf    bytes.Buffer
	chunks int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds p to the end of the buffer.
func (a *Accumulator) Append(p []byte) {
	a.buf.Write(p)
}

// Write implements io.Writer so a synthesis response can be copied straight
// into the accumulator.
func (a *Accumulator) Write(p []byte) (int, error) {
	a.Append(p)
	return len(p), nil
}

// Segment returns a writer for one segment's audio; each call counts as a
// new chunk.
func (a *Accumulator) Segment() io.Writer {
	a.chunks++
	return a
}

// Chunks reports how many segments have been started.
func (a *Accumulator) Chunks() int { return a.chunks }

func (a *Accumulator) Len() int { return a.buf.Len() }

// Bytes returns the accumulated audio. The slice aliases the buffer and is
// valid until the next Append.
func (a *Accumulator) Bytes() []byte { return a.buf.Bytes() }

// Reader returns a reader over the current contents without draining them.
func (a *Accumulator) Reader() *bytes.Reader {
	return bytes.NewReader(a.buf.Bytes())
}

// WriteTo copies the accumulated audio to w. The buffer is left intact.
func (a *Accumulator) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.buf.Bytes())
	return int64(n), err
}
