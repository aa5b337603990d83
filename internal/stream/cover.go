package stream

import (
	"net/http"

	"github.com/savonet/ai-radio/internal/cover"
)

// CoverHandler serves the artwork for whatever is on air right now. The
// file behind it changes on every track, so responses are never cacheable.
type CoverHandler struct {
	covers *cover.Manager
}

// NewCoverHandler creates a handler backed by m.
func NewCoverHandler(m *cover.Manager) *CoverHandler {
	return &CoverHandler{covers: m}
}

func (h *CoverHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	http.ServeFile(w, r, h.covers.Current())
}
