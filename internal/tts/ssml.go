package tts

import "fmt"

const ssmlTemplate = "<speak version='1.0' xml:lang='en-US'>" +
	"<voice xml:lang='en-US' xml:gender='Female' name='%s'>%s</voice>" +
	"</speak>"

// BuildSSML wraps text in a speak/voice envelope for the given voice.
//
// Neither argument is escaped: text containing '<' or '&' reaches the
// service as markup.
func BuildSSML(text, voiceID string) string {
	return fmt.Sprintf(ssmlTemplate, voiceID, text)
}
