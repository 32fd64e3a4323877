package signal

import (
	"context"
	"encoding/json"

	"github.com/krishnabarasiya03/video-conf/internal/domain"
	"github.com/krishnabarasiya03/video-conf/internal/media"
	"github.com/krishnabarasiya03/video-conf/internal/session"
)

// transportParams is what the client needs to complete its side of the
// handshake: our handle id plus the engine's opaque blob.
type transportParams struct {
	TransportID string          `json:"transportId"`
	Connection  json.RawMessage `json:"connection"`
}

func (ctl *Controller) handleCreateTransport(ctx context.Context, connID string, c *wsConn) {
	res, err := ctl.App.CreateTransport(ctx, connID)
	if err != nil {
		ctl.nack(c, "createTransport", err)
		return
	}
	ctl.sendJSON(c, struct {
		Type    string          `json:"type"`
		Success bool            `json:"success"`
		Params  transportParams `json:"params"`
	}{"createTransport", true, transportParams{
		TransportID: res.TransportID,
		Connection:  res.Params,
	}})
}

func (ctl *Controller) handleConnectTransport(ctx context.Context, connID string, c *wsConn, data []byte) {
	var p struct {
		TransportID      string          `json:"transportId"`
		RemoteParameters json.RawMessage `json:"remoteParameters"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.TransportID == "" {
		ctl.nack(c, "connectTransport", domain.Validation("missing transportId"))
		return
	}
	if err := ctl.App.ConnectTransport(ctx, connID, p.TransportID, p.RemoteParameters); err != nil {
		ctl.nack(c, "connectTransport", err)
		return
	}
	ctl.sendJSON(c, struct {
		Type    string `json:"type"`
		Success bool   `json:"success"`
	}{"connectTransport", true})
}

func (ctl *Controller) handleProduce(ctx context.Context, connID string, c *wsConn, data []byte) {
	var p struct {
		TransportID     string                `json:"transportId"`
		Kind            media.Kind            `json:"kind"`
		CodecParameters media.CodecParameters `json:"codecParameters"`
		Metadata        map[string]any        `json:"metadata"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.TransportID == "" {
		ctl.nack(c, "produce", domain.Validation("missing transportId"))
		return
	}
	producerID, err := ctl.App.Produce(ctx, connID, p.TransportID, p.Kind, p.CodecParameters, p.Metadata)
	if err != nil {
		ctl.nack(c, "produce", err)
		return
	}
	ctl.sendJSON(c, struct {
		Type       string `json:"type"`
		Success    bool   `json:"success"`
		ProducerID string `json:"producerId"`
	}{"produce", true, producerID})
}

func (ctl *Controller) handleConsume(ctx context.Context, connID string, c *wsConn, data []byte) {
	var p struct {
		TransportID         string                 `json:"transportId"`
		ProducerID          string                 `json:"producerId"`
		ReceiveCapabilities *media.RTPCapabilities `json:"receiveCapabilities"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.TransportID == "" || p.ProducerID == "" {
		ctl.nack(c, "consume", domain.Validation("missing transportId or producerId"))
		return
	}
	res, err := ctl.App.Consume(ctx, connID, p.TransportID, p.ProducerID, p.ReceiveCapabilities)
	if err != nil {
		ctl.nack(c, "consume", err)
		return
	}
	ctl.sendJSON(c, struct {
		Type            string                `json:"type"`
		Success         bool                  `json:"success"`
		ConsumerID      string                `json:"consumerId"`
		Kind            media.Kind            `json:"kind"`
		CodecParameters media.CodecParameters `json:"codecParameters"`
		ProducerPaused  bool                  `json:"producerPaused"`
	}{"consume", true, res.ConsumerID, res.Kind, res.Codec, res.ProducerPaused})
}

func (ctl *Controller) handleResumeConsumer(ctx context.Context, connID string, c *wsConn, data []byte) {
	var p struct {
		ConsumerID string `json:"consumerId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ConsumerID == "" {
		ctl.nack(c, "resumeConsumer", domain.Validation("missing consumerId"))
		return
	}
	if err := ctl.App.ResumeConsumer(ctx, connID, p.ConsumerID); err != nil {
		ctl.nack(c, "resumeConsumer", err)
		return
	}
	ctl.sendJSON(c, struct {
		Type    string `json:"type"`
		Success bool   `json:"success"`
	}{"resumeConsumer", true})
}

func (ctl *Controller) handleGetProducers(connID string, c *wsConn) {
	producers, err := ctl.App.GetProducers(connID)
	if err != nil {
		ctl.nack(c, "getProducers", err)
		return
	}
	if producers == nil {
		producers = []session.ProducerInfo{}
	}
	ctl.sendJSON(c, struct {
		Type      string                 `json:"type"`
		Success   bool                   `json:"success"`
		Producers []session.ProducerInfo `json:"producers"`
	}{"getProducers", true, producers})
}

func (ctl *Controller) handleSetReceiveCapabilities(connID string, c *wsConn, data []byte) {
	var p struct {
		ReceiveCapabilities media.RTPCapabilities `json:"receiveCapabilities"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, "setReceiveCapabilities", domain.Validation("bad payload"))
		return
	}
	if err := ctl.App.SetReceiveCapabilities(connID, p.ReceiveCapabilities); err != nil {
		ctl.nack(c, "setReceiveCapabilities", err)
		return
	}
	ctl.sendJSON(c, struct {
		Type    string `json:"type"`
		Success bool   `json:"success"`
	}{"setReceiveCapabilities", true})
}
