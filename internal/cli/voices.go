package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/apresai/scriptvoice/internal/tts"
)

var listVoicesCmd = &cobra.Command{
	Use:   "list-voices",
	Short: "List common Azure neural voices usable in [voice-id] directives",
	RunE:  runListVoices,
}

var flagLocale string

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	defaultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

func init() {
	listVoicesCmd.Flags().StringVarP(&flagLocale, "locale", "l", "", "Only show voices whose locale starts with this (e.g. en, en-GB)")
}

func runListVoices(cmd *cobra.Command, args []string) error {
	voices := tts.VoicesForLocale(flagLocale)
	if len(voices) == 0 {
		return fmt.Errorf("no voices for locale %q", flagLocale)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", headerStyle.Render("AZURE NEURAL VOICES"))
	fmt.Fprintf(out, "  %s\n", strings.Repeat("─", 50))
	fmt.Fprintf(out, "  %-24s %-7s %-7s %s\n", "ID", "LOCALE", "GENDER", "DESCRIPTION")
	for _, v := range voices {
		def := ""
		if v.Default {
			def = " " + defaultStyle.Render("(default)")
		}
		fmt.Fprintf(out, "  %-24s %-7s %-7s %s%s\n", v.ID, v.Locale, v.Gender, v.Description, def)
	}
	fmt.Fprintf(out, "\n  %s\n\n", dimStyle.Render("Any voice id the service supports works; use it as [voice-id] at the start of a line."))
	return nil
}
