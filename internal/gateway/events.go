package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
)

// handleEvents streams build events over a WebSocket connection. The
// stream ends when the client disconnects or the server shuts down.
func (s *Server) handleEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			s.logger.Error("gateway: websocket accept failed", "error", err)
			return
		}
		defer func() {
			_ = conn.Close(websocket.StatusInternalError, "unexpected close")
		}()

		events, cancel := s.hub.Subscribe()
		defer cancel()

		s.logger.Debug("gateway: event stream opened", "remote", r.RemoteAddr)

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return

			case ev, ok := <-events:
				if !ok {
					_ = conn.Close(websocket.StatusNormalClosure, "")
					return
				}

				data, err := json.Marshal(ev)
				if err != nil {
					s.logger.Warn("gateway: marshal event failed", "error", err)
					continue
				}
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					s.logger.Debug("gateway: event stream closed", "remote", r.RemoteAddr)
					return
				}
			}
		}
	}
}
