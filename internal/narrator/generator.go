package narrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/savonet/ai-radio/internal/logger"
	"github.com/savonet/ai-radio/internal/media"
	"github.com/savonet/ai-radio/internal/playout"
)

// narrationTitle is what listeners see while a generated segment airs.
const narrationTitle = "AI DJ"

// Generator turns a batch of played tracks into a ready-to-air narration
// request.
type Generator struct {
	client  *Client
	station string
}

// NewGenerator wraps client; station becomes the artist credit on generated
// segments.
func NewGenerator(client *Client, station string) *Generator {
	return &Generator{client: client, station: station}
}

// Generate builds the prompt, asks the text service for a segment, renders
// it to speech and wraps the audio file as an injectable request.
func (g *Generator) Generate(ctx context.Context, history []media.Metadata, next media.Metadata) (*playout.Request, error) {
	prompt := BuildPrompt(history, next)

	text, err := g.client.ChatCompletion(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("narration text: %w", err)
	}

	path, err := g.client.Speech(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("narration audio: %w", err)
	}

	logger.Debug("narrator: segment ready",
		logger.String("path", path),
		logger.Int("words", len(strings.Fields(text))))

	return &playout.Request{
		ID:     uuid.NewString(),
		Path:   path,
		Source: playout.SourceNarration,
		Metadata: media.Metadata{
			Path:   path,
			Title:  narrationTitle,
			Artist: g.station,
		},
	}, nil
}
