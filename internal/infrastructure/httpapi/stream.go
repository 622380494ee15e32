package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"appreview/internal/bootstrap/logging"
	"appreview/internal/errs"
)

const (
	defaultStreamInterval = 2 * time.Second

	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// handleDashboardStream pushes the supervisor dashboard over a websocket,
// once on connect and again whenever the moderation trail moves.
func (h *Handler) handleDashboardStream(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithAttrs(r.Context(), slog.String("stream", "dashboard"))
	supervisorID := currentUserID(ctx)

	// Refuse before upgrading so non-supervisors get a plain JSON error.
	dashboard, err := h.moderation.Dashboard(ctx, supervisorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cursor, err := h.moderation.EventCursor(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn(ctx, "websocket upgrade failed", slog.Any("err", errs.Loggable(err)))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go readPump(ctx, cancel, conn)

	if err := writeFrame(conn, toDashboardDTO(dashboard)); err != nil {
		return
	}

	poll := time.NewTicker(h.streamInterval)
	defer poll.Stop()
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	closing := shutdownSignal(ctx)
	for {
		select {
		case <-closing:
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(streamWriteWait),
			)
			return
		case <-ctx.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait),
			)
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-poll.C:
			events, err := h.moderation.EventsAfter(ctx, cursor, 0)
			if err != nil {
				logging.Warn(ctx, "poll moderation events failed", slog.Any("err", errs.Loggable(err)))
				continue
			}
			if len(events) == 0 {
				continue
			}
			cursor = events[len(events)-1].ID

			dashboard, err := h.moderation.Dashboard(ctx, supervisorID)
			if err != nil {
				logging.Warn(ctx, "refresh dashboard failed", slog.Any("err", errs.Loggable(err)))
				return
			}
			if err := writeFrame(conn, toDashboardDTO(dashboard)); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close messages are processed.
func readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug(ctx, "dashboard stream closed", slog.Any("err", errs.Loggable(err)))
			}
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, payload any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(payload)
}
