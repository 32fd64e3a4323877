package signal

import (
	"context"
	"encoding/json"

	"github.com/krishnabarasiya03/video-conf/internal/domain"
	"github.com/krishnabarasiya03/video-conf/internal/media"
	"github.com/krishnabarasiya03/video-conf/internal/session"
)

func (ctl *Controller) handleCreateRoom(ctx context.Context, connID string, ident domain.Identity, c *wsConn, data []byte) {
	var p struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, "createRoom", domain.Validation("bad payload"))
		return
	}
	res, err := ctl.App.CreateRoom(ctx, connID, c, ident, p.RoomID)
	if err != nil {
		ctl.nack(c, "createRoom", err)
		return
	}
	ctl.sendJSON(c, struct {
		Type                string                `json:"type"`
		Success             bool                  `json:"success"`
		RoomID              string                `json:"roomId"`
		ReceiveCapabilities media.RTPCapabilities `json:"receiveCapabilities"`
	}{"createRoom", true, res.RoomID, res.ReceiveCapabilities})
}

func (ctl *Controller) handleJoinRoom(ctx context.Context, connID string, ident domain.Identity, c *wsConn, data []byte) {
	var p struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.nack(c, "joinRoom", domain.Validation("missing roomId"))
		return
	}
	res, err := ctl.App.JoinRoom(ctx, connID, c, ident, p.RoomID)
	if err != nil {
		ctl.nack(c, "joinRoom", err)
		return
	}
	producers := res.ExistingProducers
	if producers == nil {
		producers = []session.ProducerInfo{}
	}
	ctl.sendJSON(c, struct {
		Type                string                 `json:"type"`
		Success             bool                   `json:"success"`
		RoomID              string                 `json:"roomId"`
		ReceiveCapabilities media.RTPCapabilities  `json:"receiveCapabilities"`
		ExistingProducers   []session.ProducerInfo `json:"existingProducers"`
	}{"joinRoom", true, res.RoomID, res.ReceiveCapabilities, producers})
}

func (ctl *Controller) handleLeaveRoom(connID string, c *wsConn) {
	ctl.App.Leave(connID)
	ctl.sendJSON(c, struct {
		Type    string `json:"type"`
		Success bool   `json:"success"`
	}{"leaveRoom", true})
}

func (ctl *Controller) handleChat(connID string, c *wsConn, data []byte) {
	var p struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, "chat:message", domain.Validation("bad payload"))
		return
	}
	msg, err := ctl.App.SendChat(connID, p.Text)
	if err != nil {
		ctl.nack(c, "chat:message", err)
		return
	}
	ctl.sendJSON(c, struct {
		Type    string             `json:"type"`
		Success bool               `json:"success"`
		Message domain.ChatMessage `json:"message"`
	}{"chat:message", true, msg})
}
