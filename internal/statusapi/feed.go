// Live alert feed over websocket.
//
// Each connection gets its own dispatcher subscription; a slow consumer
// misses deliveries instead of backpressuring dispatch. The socket is
// write-only: client frames are drained and ignored.
package statusapi

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Feed websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())

	feed, cancel := s.alerts.Subscribe(16)
	defer cancel()

	log.Info().Str("remote", r.RemoteAddr).Msg("Feed subscriber connected")
	defer log.Info().Str("remote", r.RemoteAddr).Msg("Feed subscriber disconnected")

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case del, ok := <-feed:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "dispatcher stopped")
				return
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, del)
			cancelWrite()
			if err != nil {
				return
			}
		}
	}
}
