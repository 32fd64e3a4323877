package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/krishnabarasiya03/video-conf/internal/domain"
	"github.com/krishnabarasiya03/video-conf/internal/media"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Opts.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump processes messages in arrival order. On exit, clean or not,
// it funnels the connection into the disconnect transition, which shares
// its implementation with explicit leave.
func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, connID string, ident domain.Identity, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", connID).Msg("readPump closing")
		ctl.App.Disconnect(connID)
		c.Close()
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.dispatch(ctx, connID, ident, c, data)
		}
	}
}

func (ctl *Controller) dispatch(ctx context.Context, connID string, ident domain.Identity, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		ctl.nack(c, "", domain.Validation("bad json"))
		return
	}

	switch env.Type {
	case "createRoom":
		ctl.handleCreateRoom(ctx, connID, ident, c, data)
	case "joinRoom":
		ctl.handleJoinRoom(ctx, connID, ident, c, data)
	case "leaveRoom":
		ctl.handleLeaveRoom(connID, c)
	case "createTransport":
		ctl.handleCreateTransport(ctx, connID, c)
	case "connectTransport":
		ctl.handleConnectTransport(ctx, connID, c, data)
	case "produce":
		ctl.handleProduce(ctx, connID, c, data)
	case "consume":
		ctl.handleConsume(ctx, connID, c, data)
	case "resumeConsumer":
		ctl.handleResumeConsumer(ctx, connID, c, data)
	case "getProducers":
		ctl.handleGetProducers(connID, c)
	case "setReceiveCapabilities":
		ctl.handleSetReceiveCapabilities(connID, c, data)
	case "chat:message":
		ctl.handleChat(connID, c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.nack(c, env.Type, domain.Validation("unknown message type"))
	}
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// nack converts any handler error into an in-band {error} ack. User
// errors keep their message; engine and unexpected failures stay opaque
// on the wire and detailed in the log. Handlers never let an error
// escape into the connection layer.
func (ctl *Controller) nack(c *wsConn, typ string, err error) {
	var engErr *media.EngineError
	var msg string
	switch {
	case errors.Is(err, domain.ErrNotAuthorized),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrNotJoined),
		errors.Is(err, domain.ErrValidation):
		msg = err.Error()
		log.Info().Err(err).Str("module", "signal").Str("type", typ).Msg("request rejected")
	case errors.As(err, &engErr):
		msg = "media operation failed"
		log.Error().Err(err).Str("module", "signal").Str("type", typ).Msg("engine failure")
	default:
		msg = "internal error"
		log.Error().Err(err).Str("module", "signal").Str("type", typ).Msg("unexpected failure")
	}
	ctl.sendJSON(c, struct {
		Type    string `json:"type"`
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{Type: typ, Success: false, Error: msg})
}
