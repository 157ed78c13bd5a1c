package script

import "regexp"

// directiveRe matches a voice directive such as [en-US-JennyNeural]. It is
// anchored so a bracketed id later in the line stays literal text.
var directiveRe = regexp.MustCompile(`^\[[\w\-]+\]`)

var voiceIDRe = regexp.MustCompile(`^[\w\-]+$`)

// ScanDirective reports whether line starts with a voice directive. It
// returns the voice id without brackets and the directive as it appeared.
func ScanDirective(line string) (voice, directive string, ok bool) {
	directive = directiveRe.FindString(line)
	if directive == "" {
		return "", "", false
	}
	return directive[1 : len(directive)-1], directive, true
}

// IsVoiceID reports whether id could appear inside a directive.
func IsVoiceID(id string) bool {
	return voiceIDRe.MatchString(id)
}
