package session

import (
	"strings"

	"github.com/neon-portfolio/server/internal/assistant/model"
)

// FormatTranscript renders msgs one per line as "<origin>: <text>", with the
// leading prompt marker removed. Line breaks inside a message become spaces.
func FormatTranscript(msgs []model.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(string(m.Origin))
		b.WriteString(": ")
		b.WriteString(lineBreaks.Replace(model.StripMarker(m.Text)))
		b.WriteByte('\n')
	}
	return b.String()
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
