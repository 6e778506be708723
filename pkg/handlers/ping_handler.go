package handlers

import "net/http"

// PingHandler - liveness probe shared by the REST and WebSocket servers.
func PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("pong")); err != nil {
		return
	}
}
