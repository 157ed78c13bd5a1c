package progress

import "time"

// Stage identifies which pipeline stage is active.
type Stage string

const (
	StageConfig   Stage = "config"
	StageIngest   Stage = "ingest"
	StageScript   Stage = "script"
	StageTTS      Stage = "tts"
	StageOutput   Stage = "output"
	StageComplete Stage = "complete"
)

// Event carries progress information from the pipeline to the renderer.
type Event struct {
	Stage        Stage
	Message      string
	Percent      float64 // 0.0–1.0
	SegmentNum   int
	SegmentTotal int
	Voice        string
	Elapsed      time.Duration
	Error        error
	// OutputFile is set on StageComplete with the final destination.
	OutputFile string
	// Bytes is the total audio size, set on StageComplete.
	Bytes int64
}

// Callback is the function signature for progress event handlers.
type Callback func(Event)

// NopCallback is a no-op progress callback for tests and silent mode.
func NopCallback(Event) {}

// NewEvent creates an Event with common fields populated.
func NewEvent(stage Stage, msg string, pct float64, start time.Time) Event {
	return Event{
		Stage:   stage,
		Message: msg,
		Percent: pct,
		Elapsed: time.Since(start),
	}
}

// SegmentPercent maps segment progress onto the TTS share of the bar,
// which runs from 10% to 95%.
func SegmentPercent(done, total int) float64 {
	if total <= 0 {
		return 0.95
	}
	return 0.10 + 0.85*float64(done)/float64(total)
}
