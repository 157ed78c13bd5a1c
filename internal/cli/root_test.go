package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apresai/scriptvoice/internal/config"
	"github.com/apresai/scriptvoice/internal/script"
)

func resetFlags() {
	flagInput, flagOutput, flagFromScript = "", "", ""
	flagVoice = script.DefaultVoice
	flagVerbose, flagIncremental = false, false
	flagTimeout = 0
	flagSpeechKey, flagSpeechRegion, flagEndpoint = "", "", ""
	flagEnvFile, flagSecretPrefix, flagAWSRegion = "", "", ""
	flagSegmentsOutput, flagSegmentsJSON = "", false
	flagSegmentsVoice = script.DefaultVoice
	flagLocale = ""
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(bytes.NewReader(nil))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestResolvePaths(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		input      string
		output     string
		fromScript string
		wantIn     string
		wantOut    string
		wantErr    string
	}{
		{name: "positional", args: []string{"in.txt", "out.mp3"}, wantIn: "in.txt", wantOut: "out.mp3"},
		{name: "flags", input: "in.txt", output: "out.mp3", wantIn: "in.txt", wantOut: "out.mp3"},
		{name: "mixed", args: []string{"in.txt"}, output: "out.mp3", wantIn: "in.txt", wantOut: "out.mp3"},
		{name: "from script", fromScript: "s.json", output: "out.mp3", wantOut: "out.mp3"},
		{name: "no input", output: "out.mp3", wantErr: "input script is required"},
		{name: "no output", args: []string{"in.txt"}, wantErr: "output path is required"},
		{name: "both inputs", input: "a.txt", fromScript: "s.json", output: "o.mp3", wantErr: "mutually exclusive"},
		{name: "duplicate input", args: []string{"a.txt"}, input: "b.txt", output: "o.mp3", wantErr: "both as argument and flag"},
		{name: "duplicate output", args: []string{"a.txt", "o.mp3"}, output: "p.mp3", wantErr: "both as argument and --output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			defer resetFlags()
			flagInput, flagOutput, flagFromScript = tt.input, tt.output, tt.fromScript

			in, out, err := resolvePaths(tt.args)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIn, in)
			assert.Equal(t, tt.wantOut, out)
		})
	}
}

var voiceRe = regexp.MustCompile(`name='([^']*)'>(.*)</voice>`)

func TestSynthesizeEndToEnd(t *testing.T) {
	var userAgents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgents = append(userAgents, r.Header.Get("User-Agent"))
		body, _ := io.ReadAll(r.Body)
		m := voiceRe.FindSubmatch(body)
		fmt.Fprintf(w, "[%s|%s]", m[1], m[2])
	}))
	defer server.Close()

	dir := t.TempDir()
	in := filepath.Join(dir, "script.txt")
	out := filepath.Join(dir, "episode.mp3")
	require.NoError(t, os.WriteFile(in, []byte("[en-US-GuyNeural]Hello world\nSecond line same voice\n\n[en-GB-LibbyNeural]Cheerio\n"), 0644))

	stdout, err := execute(t, in, out, "--speech-key", "k", "--endpoint", server.URL)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[en-US-GuyNeural|Hello world][en-US-GuyNeural|Second line same voice][en-GB-LibbyNeural|Cheerio]", string(data))
	assert.Contains(t, stdout, "Audio saved to "+out)
	assert.Equal(t, []string{"scriptvoice/dev", "scriptvoice/dev", "scriptvoice/dev"}, userAgents)
}

func TestSynthesizeServiceErrorWritesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	dir := t.TempDir()
	in := filepath.Join(dir, "script.txt")
	out := filepath.Join(dir, "episode.mp3")
	require.NoError(t, os.WriteFile(in, []byte("hello\n"), 0644))

	_, err := execute(t, "synthesize", "-i", in, "-o", out, "--speech-key", "k", "--endpoint", server.URL, "--timeout", "5s")
	require.ErrorContains(t, err, "status 401")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSynthesizeMissingCredentials(t *testing.T) {
	t.Setenv("SPEECH_KEY", "")
	t.Setenv("SPEECH_REGION", "")
	dir := t.TempDir()
	in := filepath.Join(dir, "script.txt")
	require.NoError(t, os.WriteFile(in, []byte("hello\n"), 0644))

	_, err := execute(t, in, filepath.Join(dir, "o.mp3"), "--env-file", filepath.Join(dir, "missing.env"))
	assert.ErrorContains(t, err, "open env file")

	envFile := filepath.Join(dir, "creds.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SPEECH_REGION=westus\n"), 0600))
	_, err = execute(t, in, filepath.Join(dir, "o.mp3"), "--env-file", envFile)
	assert.ErrorIs(t, err, config.ErrMissingKey)
	assert.ErrorContains(t, err, "[config]")
}

func TestSynthesizeValidatesFlags(t *testing.T) {
	_, err := execute(t, "in.txt", "out.mp3", "--voice", "not a voice")
	assert.ErrorContains(t, err, "invalid voice")

	_, err = execute(t, "in.txt", "out.mp3", "--timeout", fmt.Sprint(-time.Second))
	assert.ErrorContains(t, err, "--timeout must not be negative")
}

func TestSegmentsCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "script.txt")
	require.NoError(t, os.WriteFile(in, []byte("Intro\n[en-GB-LibbyNeural]Cheerio\n"), 0644))

	out, err := execute(t, "segments", in)
	require.NoError(t, err)
	assert.Contains(t, out, "en-US-JennyNeural")
	assert.Contains(t, out, "Cheerio")
	assert.Contains(t, out, "2 segments")

	jsonPath := filepath.Join(dir, "segments.json")
	_, err = execute(t, "segments", in, "-o", jsonPath)
	require.NoError(t, err)
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"voice": "en-GB-LibbyNeural"`)

	out, err = execute(t, "segments", in, "--json", "--voice", "en-US-GuyNeural")
	require.NoError(t, err)
	assert.Contains(t, out, `"voice": "en-US-GuyNeural"`)
}

func TestListVoicesCommand(t *testing.T) {
	out, err := execute(t, "list-voices", "--locale", "en-GB")
	require.NoError(t, err)
	assert.Contains(t, out, "en-GB-LibbyNeural")
	assert.NotContains(t, out, "en-US-GuyNeural")

	_, err = execute(t, "list-voices", "--locale", "xx")
	assert.ErrorContains(t, err, "no voices")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "scriptvoice dev\n", out)
}
