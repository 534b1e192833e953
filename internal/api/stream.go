package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/progress-engine/internal/models"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
	streamPongWait   = 2 * streamPingPeriod
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamHello is the first message sent on a progress stream
type StreamHello struct {
	Type        string `json:"type"`
	UserAddress string `json:"userAddress"`
}

func (s *Server) handleProgressStream(w http.ResponseWriter, r *http.Request) {
	address, err := models.NormalizeAddress(chi.URLParam(r, "address"))
	if err != nil {
		respondServiceError(w, r, err, "open progress stream")
		return
	}
	if s.events == nil {
		respondError(w, http.StatusServiceUnavailable, "unavailable", "progress stream is not configured")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before upgrading so no event published after the hello is missed
	sub, err := s.events.Subscribe(ctx, address)
	if err != nil {
		respondServiceError(w, r, err, "open progress stream")
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("progress stream connected", "address", address)
	defer slog.Info("progress stream disconnected", "address", address)

	if err := writeStream(conn, StreamHello{Type: "connected", UserAddress: address}); err != nil {
		return
	}

	// The server's read deadline survives the upgrade; pongs extend it
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	// Clients only send control frames; a read error means they went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"),
					time.Now().Add(streamWriteWait))
				return
			}
			if err := writeStream(conn, ev); err != nil {
				slog.Debug("progress stream write failed", "error", err, "address", address)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeStream(conn *websocket.Conn, msg interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(msg)
}
