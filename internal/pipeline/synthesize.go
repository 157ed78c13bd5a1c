package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/apresai/scriptvoice/internal/assembly"
	"github.com/apresai/scriptvoice/internal/progress"
	"github.com/apresai/scriptvoice/internal/script"
	"github.com/apresai/scriptvoice/internal/tts"
)

// SegmentError identifies the segment a synthesis failure belongs to.
type SegmentError struct {
	Index int // 1-based
	Line  int
	Voice string
	Err   error
}

func (e *SegmentError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("segment %d (line %d, voice %s): %v", e.Index, e.Line, e.Voice, e.Err)
	}
	return fmt.Sprintf("segment %d (voice %s): %v", e.Index, e.Voice, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

// SynthesizeScript synthesizes every segment of s into a fresh accumulator.
func SynthesizeScript(ctx context.Context, synth tts.Synthesizer, s *script.Script, logger *slog.Logger, emit progress.Callback, start time.Time) (*assembly.Accumulator, error) {
	acc := assembly.NewAccumulator()
	if _, err := SynthesizeSegments(ctx, synth, s.Segments, acc, logger, emit, start); err != nil {
		return nil, err
	}
	return acc, nil
}

// SynthesizeSegments sends segments to synth one at a time, in order, and
// copies each response into sink before starting the next. It stops at the
// first error.
func SynthesizeSegments(ctx context.Context, synth tts.Synthesizer, segments []script.Segment, sink io.Writer, logger *slog.Logger, emit progress.Callback, start time.Time) (int64, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if emit == nil {
		emit = progress.NopCallback
	}

	var total int64
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return total, &SegmentError{Index: i + 1, Line: seg.Line, Voice: seg.Voice, Err: err}
		}

		n, err := synthesizeOne(ctx, synth, i, len(segments), seg, sink)
		total += n
		if err != nil {
			return total, &SegmentError{Index: i + 1, Line: seg.Line, Voice: seg.Voice, Err: err}
		}

		logger.DebugContext(ctx, "Segment synthesized",
			"segment", i+1,
			"of", len(segments),
			"voice", seg.Voice,
			"chars", len(seg.Text),
			"bytes", n,
		)

		ev := progress.NewEvent(progress.StageTTS,
			fmt.Sprintf("Synthesized segment %d/%d (%s)", i+1, len(segments), seg.Voice),
			progress.SegmentPercent(i+1, len(segments)), start)
		ev.SegmentNum = i + 1
		ev.SegmentTotal = len(segments)
		ev.Voice = seg.Voice
		emit(ev)
	}
	return total, nil
}

func synthesizeOne(ctx context.Context, synth tts.Synthesizer, i, total int, seg script.Segment, sink io.Writer) (int64, error) {
	ctx, span := tracer.Start(ctx, "pipeline.segment")
	defer span.End()
	span.SetAttributes(
		attribute.Int("segment", i+1),
		attribute.Int("segments", total),
		attribute.String("voice", seg.Voice),
		attribute.Int("chars", len(seg.Text)),
	)

	if acc, ok := sink.(*assembly.Accumulator); ok {
		sink = acc.Segment()
	}

	n, err := synth.Synthesize(ctx, tts.BuildSSML(seg.Text, seg.Voice), sink)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "segment failed")
	}
	return n, err
}
