package ws

import (
	"context"
	"net/http"

	"github.com/vedran77/teamchat/internal/auth"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
)

// Options configures socket upgrades.
type Options struct {
	// OriginPatterns lists the hosts allowed to open sockets; empty allows
	// any origin.
	OriginPatterns []string
	EventRate      rate.Limit
	EventBurst     int
}

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
func ServeWS(ctx context.Context, hub *Hub, gw EventHandler, verifier *auth.Verifier, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := verifier.FromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns:     opts.OriginPatterns,
			InsecureSkipVerify: len(opts.OriginPatterns) == 0,
		})
		if err != nil {
			zap.L().Info("ws accept error", zap.Error(err))
			return
		}

		var limiter *rate.Limiter
		if opts.EventRate > 0 {
			limiter = rate.NewLimiter(opts.EventRate, opts.EventBurst)
		}

		client := NewClient(hub, conn, userID, limiter)
		hub.Register(client)

		// Start read/write pumps in goroutines
		go client.WritePump()
		go client.ReadPump(ctx, gw)
	}
}
