package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// DefaultVoice is the voice in effect before the first directive.
const DefaultVoice = "en-US-JennyNeural"

// ErrNoSegments is returned when a script yields nothing to synthesize.
var ErrNoSegments = errors.New("script has no segments")

// VoiceState is the voice id carried from line to line.
type VoiceState string

// NewVoiceState returns the initial state, falling back to DefaultVoice so
// the state is never empty.
func NewVoiceState(voice string) VoiceState {
	if strings.TrimSpace(voice) == "" {
		return DefaultVoice
	}
	return VoiceState(voice)
}

type Script struct {
	Source     string    `json:"source,omitempty"`
	FinalVoice string    `json:"final_voice"`
	Segments   []Segment `json:"segments"`
}

type Segment struct {
	Voice string `json:"voice"`
	Text  string `json:"text"`
	Line  int    `json:"line,omitempty"`
}

// Next applies one input line to the voice state. It returns the updated
// state and, when the line carries text, the segment to synthesize.
// Directive-only and blank lines update the state but emit nothing.
func Next(state VoiceState, line string) (VoiceState, Segment, bool) {
	text := line
	if voice, directive, ok := ScanDirective(line); ok {
		state = VoiceState(voice)
		text = line[len(directive):]
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return state, Segment{}, false
	}
	return state, Segment{Voice: string(state), Text: text}, true
}

// Process folds Next over lines in order.
func Process(initial VoiceState, lines []string) *Script {
	state := NewVoiceState(string(initial))
	s := &Script{}
	for i, line := range lines {
		var seg Segment
		var ok bool
		state, seg, ok = Next(state, line)
		if !ok {
			continue
		}
		seg.Line = i + 1
		s.Segments = append(s.Segments, seg)
	}
	s.FinalVoice = string(state)
	return s
}

// Parse splits text into lines and processes them.
func Parse(text string, initial VoiceState) *Script {
	return Process(initial, SplitLines(text))
}

// SplitLines splits on '\n'. A trailing '\r' is left for Next to trim, and a
// final newline does not produce an extra line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func SaveScript(fs afero.Fs, s *Script, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("write script to %s: %w", path, err)
	}
	return nil
}

func LoadScript(fs afero.Fs, path string) (*Script, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read script from %s: %w", path, err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script from %s: %w", path, err)
	}
	if len(s.Segments) == 0 {
		return nil, fmt.Errorf("script %s: %w", path, ErrNoSegments)
	}
	for i, seg := range s.Segments {
		if strings.TrimSpace(seg.Text) == "" {
			return nil, fmt.Errorf("script %s: segment %d has no text", path, i+1)
		}
		if !IsVoiceID(seg.Voice) {
			return nil, fmt.Errorf("script %s: segment %d has invalid voice %q", path, i+1, seg.Voice)
		}
	}
	return &s, nil
}
