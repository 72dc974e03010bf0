package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// sseWriter writes Server-Sent Events frames and flushes after each one.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter, flusher http.Flusher) *sseWriter {
	return &sseWriter{w: w, flusher: flusher}
}

// sendJSON marshals payload and sends it as one data event.
func (s *sseWriter) sendJSON(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// sendDone sends the end-of-stream marker.
func (s *sseWriter) sendDone() {
	_, _ = fmt.Fprintf(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}
