package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/apresai/scriptvoice/internal/ingest"
	"github.com/apresai/scriptvoice/internal/script"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments <input>",
	Short: "Show how a script splits into voice segments, without calling the speech service",
	Long: `Parse a script and print the segments that would be synthesized, one per
non-blank line, each with the voice in effect. With --output the segments are
saved as JSON for a later "synthesize --from-script".`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runSegments,
}

var (
	flagSegmentsOutput string
	flagSegmentsVoice  string
	flagSegmentsJSON   bool
)

func init() {
	segmentsCmd.Flags().StringVarP(&flagSegmentsOutput, "output", "o", "", "Save segments as JSON to this path")
	segmentsCmd.Flags().StringVarP(&flagSegmentsVoice, "voice", "V", script.DefaultVoice, "Voice used until the first [voice-id] directive")
	segmentsCmd.Flags().BoolVar(&flagSegmentsJSON, "json", false, "Print JSON instead of a table")
}

func runSegments(cmd *cobra.Command, args []string) error {
	if !script.IsVoiceID(flagSegmentsVoice) {
		return fmt.Errorf("invalid voice %q", flagSegmentsVoice)
	}

	fs := afero.NewOsFs()
	input := args[0]
	content, err := ingest.NewIngester(fs, cmd.InOrStdin(), input).Ingest(cmd.Context(), input)
	if err != nil {
		return err
	}

	s := script.Parse(content.Text, script.NewVoiceState(flagSegmentsVoice))
	s.Source = content.Source

	if flagSegmentsOutput != "" {
		if err := script.SaveScript(fs, s, flagSegmentsOutput); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d segments to %s\n", len(s.Segments), flagSegmentsOutput)
		return nil
	}

	out := cmd.OutOrStdout()
	if flagSegmentsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Fprintf(out, "%-5s %-28s %s\n", "LINE", "VOICE", "TEXT")
	for _, seg := range s.Segments {
		fmt.Fprintf(out, "%-5d %-28s %s\n", seg.Line, seg.Voice, seg.Text)
	}
	fmt.Fprintf(out, "\n%d segments\n", len(s.Segments))
	return nil
}
