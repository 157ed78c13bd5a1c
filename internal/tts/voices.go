package tts

import "strings"

// VoiceInfo describes an available voice for display in the catalog.
type VoiceInfo struct {
	ID          string
	Locale      string
	Gender      string // "male" or "female"
	Description string
	Default     bool
}

// AvailableVoices returns a catalog of common Azure neural voices. The
// service accepts any voice id it knows; this list is for discovery only.
func AvailableVoices() []VoiceInfo {
	return []VoiceInfo{
		{ID: "en-US-JennyNeural", Locale: "en-US", Gender: "female", Description: "Friendly American female, general narration", Default: true},
		{ID: "en-US-GuyNeural", Locale: "en-US", Gender: "male", Description: "Confident American male, newscast"},
		{ID: "en-US-AriaNeural", Locale: "en-US", Gender: "female", Description: "Expressive American female, conversational"},
		{ID: "en-US-DavisNeural", Locale: "en-US", Gender: "male", Description: "Calm American male, audiobook"},
		{ID: "en-US-JaneNeural", Locale: "en-US", Gender: "female", Description: "Bright American female, upbeat"},
		{ID: "en-US-TonyNeural", Locale: "en-US", Gender: "male", Description: "Warm American male, casual"},
		{ID: "en-GB-LibbyNeural", Locale: "en-GB", Gender: "female", Description: "British female, clear and measured"},
		{ID: "en-GB-RyanNeural", Locale: "en-GB", Gender: "male", Description: "British male, relaxed storyteller"},
		{ID: "en-GB-SoniaNeural", Locale: "en-GB", Gender: "female", Description: "British female, crisp presenter"},
		{ID: "en-AU-NatashaNeural", Locale: "en-AU", Gender: "female", Description: "Australian female, friendly"},
		{ID: "en-AU-WilliamNeural", Locale: "en-AU", Gender: "male", Description: "Australian male, easygoing"},
		{ID: "en-IN-NeerjaNeural", Locale: "en-IN", Gender: "female", Description: "Indian English female, warm"},
		{ID: "de-DE-KatjaNeural", Locale: "de-DE", Gender: "female", Description: "German female, neutral"},
		{ID: "fr-FR-DeniseNeural", Locale: "fr-FR", Gender: "female", Description: "French female, neutral"},
		{ID: "es-ES-ElviraNeural", Locale: "es-ES", Gender: "female", Description: "Castilian Spanish female, neutral"},
		{ID: "ja-JP-NanamiNeural", Locale: "ja-JP", Gender: "female", Description: "Japanese female, bright"},
	}
}

// VoicesForLocale filters the catalog by locale prefix ("en", "en-GB").
// An empty prefix returns every voice.
func VoicesForLocale(prefix string) []VoiceInfo {
	all := AvailableVoices()
	if prefix == "" {
		return all
	}
	var out []VoiceInfo
	for _, v := range all {
		if strings.HasPrefix(strings.ToLower(v.Locale), strings.ToLower(prefix)) {
			out = append(out, v)
		}
	}
	return out
}
