package httpapi

import (
	"encoding/json"
	"net/http"
)

// StreamTimerEvents streams the caller's session mutations as
// server-sent events until the client disconnects.
func StreamTimerEvents(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		events, cancel := hub.Subscribe(UserID(r))
		defer cancel()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}

				data, _ := json.Marshal(ev)
				w.Write([]byte("data: "))
				w.Write(data)
				w.Write([]byte("\n\n"))

				flusher.Flush()

			case <-r.Context().Done():
				return
			}
		}
	}
}
