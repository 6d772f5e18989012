package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/dockwatch/dockwatch/lib/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Websocket upgrades the request and relays the source as text messages, one
// per chunk. A reader goroutine watches for the client closing the socket and
// cancels the stream so the underlying session is released promptly.
func (r *Relay) Websocket(ctx context.Context, w http.ResponseWriter, req *http.Request, src io.ReadCloser) error {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		src.Close()
		return fmt.Errorf("websocket upgrade: %w", err)
	}
	defer conn.Close()
	defer src.Close()

	r.trackStream(ctx)
	defer r.untrackStream(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		// Drain control frames; an error means the peer went away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				src.Close()
				return
			}
		}
	}()

	buf := make([]byte, 32*1024)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if werr := conn.WriteMessage(websocket.TextMessage, buf[:n]); werr != nil {
				return nil
			}
			r.countBytes(ctx, n)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log := logger.FromContext(ctx)
				log.WarnContext(ctx, "websocket log stream ended with error", "error", err)
				conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("Error reading stream: %v", err)))
			}
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		}
	}
}
