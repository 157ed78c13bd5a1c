package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/apresai/scriptvoice/internal/ingest"
	"github.com/apresai/scriptvoice/internal/observability"
	"github.com/apresai/scriptvoice/internal/progress"
	"github.com/apresai/scriptvoice/internal/script"
	"github.com/apresai/scriptvoice/internal/storage"
	"github.com/apresai/scriptvoice/internal/tts"
)

var tracer = otel.Tracer("scriptvoice/pipeline")

type Options struct {
	// Input is a script path, or "-" for Stdin. Ignored when FromScript is set.
	Input string
	// FromScript is a segments JSON file written by the segments command.
	FromScript string
	// Output is a local path or s3://bucket/key.
	Output string
	// Voice is the voice before the first directive. Empty means
	// script.DefaultVoice.
	Voice string
	// Incremental writes each segment to Output as soon as it arrives.
	// A failed run then leaves partial audio behind.
	Incremental bool

	Synthesizer tts.Synthesizer
	Store       storage.Store
	Fs          afero.Fs
	Stdin       io.Reader
	Logger      *slog.Logger
	OnProgress  progress.Callback
}

// Result summarizes a finished run.
type Result struct {
	RunID    string
	Segments int
	Bytes    int64
	Output   string
	Elapsed  time.Duration
}

type PipelineError struct {
	Stage   string
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Run reads the script, synthesizes every segment in order and persists the
// audio once. Any error aborts the run; without Incremental nothing is
// written unless every segment succeeded.
func Run(ctx context.Context, opts Options) (*Result, error) {
	pipelineStart := time.Now()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if opts.Synthesizer == nil {
		return nil, &PipelineError{Stage: "config", Message: "no synthesizer configured"}
	}
	if opts.Output == "" {
		return nil, &PipelineError{Stage: "config", Message: "no output destination"}
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Store == nil {
		opts.Store = &storage.Router{Local: storage.NewFileStore(opts.Fs)}
	}
	emit := opts.OnProgress
	if emit == nil {
		emit = progress.NopCallback
	}

	runID := observability.NewRunID()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", runID)

	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runID), attribute.Bool("incremental", opts.Incremental))

	fail := func(err *PipelineError) (*Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Stage)
		ev := progress.NewEvent(progress.Stage(err.Stage), err.Message, 0, pipelineStart)
		ev.Error = err
		emit(ev)
		logger.ErrorContext(ctx, "Run failed", "stage", err.Stage, "error", err.Err)
		return nil, err
	}

	s, err := loadScript(ctx, opts, logger, emit, pipelineStart)
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(attribute.Int("segments", len(s.Segments)))

	if len(s.Segments) == 0 {
		logger.WarnContext(ctx, "Script has no text to synthesize; output will be empty")
	}

	var total int64
	if opts.Incremental {
		total, err = runIncremental(ctx, opts, s, logger, emit, pipelineStart)
		if err != nil {
			return fail(err)
		}
	} else {
		acc, err := SynthesizeScript(ctx, opts.Synthesizer, s, logger, emit, pipelineStart)
		if err != nil {
			return fail(&PipelineError{Stage: "tts", Message: "failed to synthesize audio", Err: err})
		}

		emit(progress.NewEvent(progress.StageOutput, fmt.Sprintf("Saving %d bytes to %s", acc.Len(), opts.Output), 0.97, pipelineStart))
		if err := opts.Store.Save(ctx, opts.Output, acc.Reader(), int64(acc.Len())); err != nil {
			return fail(&PipelineError{Stage: "output", Message: "failed to save audio", Err: err})
		}
		total = int64(acc.Len())
	}

	res := &Result{
		RunID:    runID,
		Segments: len(s.Segments),
		Bytes:    total,
		Output:   opts.Output,
		Elapsed:  time.Since(pipelineStart),
	}

	done := progress.NewEvent(progress.StageComplete, fmt.Sprintf("Synthesized %d segments", res.Segments), 1, pipelineStart)
	done.OutputFile = res.Output
	done.Bytes = res.Bytes
	emit(done)

	logger.InfoContext(ctx, "Run complete",
		"segments", res.Segments,
		"bytes", res.Bytes,
		"output", res.Output,
		"elapsed", res.Elapsed.Round(time.Millisecond).String(),
	)
	return res, nil
}

func loadScript(ctx context.Context, opts Options, logger *slog.Logger, emit progress.Callback, start time.Time) (*script.Script, *PipelineError) {
	if opts.FromScript != "" {
		s, err := script.LoadScript(opts.Fs, opts.FromScript)
		if err != nil {
			return nil, &PipelineError{Stage: "script", Message: "failed to load segments", Err: err}
		}
		emit(progress.NewEvent(progress.StageScript, fmt.Sprintf("Loaded %d segments from %s", len(s.Segments), opts.FromScript), 0.10, start))
		return s, nil
	}

	content, err := ingest.NewIngester(opts.Fs, opts.Stdin, opts.Input).Ingest(ctx, opts.Input)
	if err != nil {
		return nil, &PipelineError{Stage: "ingest", Message: "failed to read input", Err: err}
	}
	emit(progress.NewEvent(progress.StageIngest, fmt.Sprintf("Read %d words from %s", content.WordCount, content.Source), 0.05, start))
	logger.DebugContext(ctx, "Input read", "source", content.Source, "bytes", len(content.Text), "words", content.WordCount)

	s := script.Parse(content.Text, script.NewVoiceState(opts.Voice))
	s.Source = content.Source
	emit(progress.NewEvent(progress.StageScript, fmt.Sprintf("Parsed %d segments", len(s.Segments)), 0.10, start))
	return s, nil
}

func runIncremental(ctx context.Context, opts Options, s *script.Script, logger *slog.Logger, emit progress.Callback, start time.Time) (int64, *PipelineError) {
	if storage.IsRemote(opts.Output) {
		return 0, &PipelineError{Stage: "output", Message: "incremental output needs a local path", Err: fmt.Errorf("got %s", opts.Output)}
	}

	f, err := storage.NewFileStore(opts.Fs).Create(opts.Output)
	if err != nil {
		return 0, &PipelineError{Stage: "output", Message: "failed to open output", Err: err}
	}

	total, err := SynthesizeSegments(ctx, opts.Synthesizer, s.Segments, f, logger, emit, start)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		return total, &PipelineError{Stage: "output", Message: "failed to close output", Err: closeErr}
	}
	if err != nil {
		return total, &PipelineError{Stage: "tts", Message: "failed to synthesize audio", Err: err}
	}
	return total, nil
}
