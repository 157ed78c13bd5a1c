package mcpserver

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/apresai/scriptvoice/internal/pipeline"
	"github.com/apresai/scriptvoice/internal/progress"
	"github.com/apresai/scriptvoice/internal/script"
	"github.com/apresai/scriptvoice/internal/tts"
)

var tracer = otel.Tracer("scriptvoice-mcp")

// maxScriptChars bounds the script accepted over MCP.
const maxScriptChars = 200_000

// Uploader stores finished audio and returns where it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64) (url string, err error)
}

// ToolDefs returns the MCP tool definitions.
func ToolDefs() []mcp.Tool {
	scriptProps := map[string]any{
		"script": map[string]any{
			"type":        "string",
			"description": "Script text. Each non-blank line is spoken; a line starting with [voice-id] switches the voice from that line on.",
		},
		"voice": map[string]any{
			"type":        "string",
			"description": "Voice used until the first directive",
			"default":     script.DefaultVoice,
		},
	}

	return []mcp.Tool{
		{
			Name:        "synthesize_script",
			Description: "Synthesize a voice-annotated script into one MP3 and return its URL. Runs synchronously; every line is synthesized in order.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: scriptProps,
				Required:   []string{"script"},
			},
		},
		{
			Name:        "parse_script",
			Description: "Show the (voice, text) segments a script would produce, without synthesizing anything.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: scriptProps,
				Required:   []string{"script"},
			},
		},
		{
			Name:        "list_voices",
			Description: "List common Azure neural voices usable in [voice-id] directives.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"locale": map[string]any{
						"type":        "string",
						"description": "Locale prefix filter, e.g. en or en-GB",
					},
				},
			},
		},
	}
}

// Handlers contains tool handler implementations.
type Handlers struct {
	synth  tts.Synthesizer
	upload Uploader
	log    *slog.Logger

	// runs are serialized; a script is never synthesized in parallel
	mu sync.Mutex
}

// NewHandlers creates tool handlers.
func NewHandlers(synth tts.Synthesizer, upload Uploader, logger *slog.Logger) *Handlers {
	return &Handlers{synth: synth, upload: upload, log: logger}
}

func parseScriptArgs(req mcp.CallToolRequest) (*script.Script, error) {
	text := mcp.ParseString(req, "script", "")
	voice := mcp.ParseString(req, "voice", script.DefaultVoice)

	if text == "" {
		return nil, fmt.Errorf("script is required")
	}
	if len(text) > maxScriptChars {
		return nil, fmt.Errorf("script is too long (%d chars, max %d)", len(text), maxScriptChars)
	}
	if !script.IsVoiceID(voice) {
		return nil, fmt.Errorf("invalid voice %q", voice)
	}
	return script.Parse(text, script.NewVoiceState(voice)), nil
}

// HandleSynthesizeScript synthesizes a script and uploads the audio.
func (h *Handlers) HandleSynthesizeScript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.synthesize_script")
	defer span.End()

	s, err := parseScriptArgs(req)
	if err != nil {
		span.SetStatus(codes.Error, "invalid arguments")
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(s.Segments) == 0 {
		span.SetStatus(codes.Error, "empty script")
		return mcp.NewToolResultError("script has no text to synthesize"), nil
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	span.SetAttributes(
		attribute.String("audio_id", id),
		attribute.Int("segments", len(s.Segments)),
	)

	h.mu.Lock()
	acc, err := pipeline.SynthesizeScript(ctx, h.synth, s, h.log, progress.NopCallback, time.Now())
	h.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "synthesis failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to synthesize: %v", err)), nil
	}

	key := "audio/" + id + ".mp3"
	url, err := h.upload.Upload(ctx, key, acc.Reader(), int64(acc.Len()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to upload audio: %v", err)), nil
	}

	h.log.InfoContext(ctx, "Script synthesized", "audio_id", id, "segments", len(s.Segments), "bytes", acc.Len())

	return jsonResult(map[string]any{
		"id":       id,
		"url":      url,
		"segments": len(s.Segments),
		"bytes":    acc.Len(),
	})
}

// HandleParseScript returns the segments of a script.
func (h *Handlers) HandleParseScript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := tracer.Start(ctx, "tool.parse_script")
	defer span.End()

	s, err := parseScriptArgs(req)
	if err != nil {
		span.SetStatus(codes.Error, "invalid arguments")
		return mcp.NewToolResultError(err.Error()), nil
	}
	span.SetAttributes(attribute.Int("segments", len(s.Segments)))
	return jsonResult(s)
}

// HandleListVoices returns the voice catalog.
func (h *Handlers) HandleListVoices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := tracer.Start(ctx, "tool.list_voices")
	defer span.End()

	locale := mcp.ParseString(req, "locale", "")
	voices := tts.VoicesForLocale(locale)

	out := make([]map[string]any, 0, len(voices))
	for _, v := range voices {
		out = append(out, map[string]any{
			"id":          v.ID,
			"locale":      v.Locale,
			"gender":      v.Gender,
			"description": v.Description,
			"default":     v.Default,
		})
	}
	return jsonResult(map[string]any{"voices": out, "count": len(out)})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
