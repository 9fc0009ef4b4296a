package api

import (
	"errors"
	"fmt"
	"net/http"
)

// streamBoundary separates frames in the MJPEG stream.
const streamBoundary = "frame"

// handleVideo handles GET /video, serving an MJPEG stream until the client
// disconnects or the frame channel closes.
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "no_stream", errors.New("streaming unsupported"))
		return
	}

	id, frames := s.deps.Subscribe()
	defer s.deps.Unsubscribe(id)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, open := <-frames:
			if !open {
				return
			}
			if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", streamBoundary, len(frame)); err != nil {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			if _, err := fmt.Fprint(w, "\r\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
