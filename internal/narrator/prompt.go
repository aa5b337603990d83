package narrator

import (
	"strings"

	"github.com/savonet/ai-radio/internal/media"
)

const systemPrompt = "You are a helpful assistant."

// BuildPrompt renders the instruction sent to the text-generation service.
// History entries appear as "Title by Artist" in play order; when the
// upcoming track is known the prompt ends by asking for an introduction
// to it.
func BuildPrompt(history []media.Metadata, next media.Metadata) string {
	played := make([]string, len(history))
	for i, md := range history {
		played[i] = md.String()
	}

	var b strings.Builder
	b.WriteString("You are a radio host, live on air. ")
	b.WriteString("Write the segment you would say right now, at most 200 words ")
	b.WriteString("of plain spoken text with no stage directions and no emojis. ")
	b.WriteString("The listeners just heard: ")
	b.WriteString(strings.Join(played, ", "))
	b.WriteString(". Pick one or two of those songs and say something ")
	b.WriteString("entertaining about them, like the style, the year they came ")
	b.WriteString("out, the instruments, or the stories around the artists.")
	if !next.IsZero() {
		b.WriteString(" End the segment by introducing the song coming up next: ")
		b.WriteString(next.String())
		b.WriteString(".")
	}
	return b.String()
}
