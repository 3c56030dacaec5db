package ws

import (
	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/vacs-platform/streamview/internal/logger"
	"github.com/vacs-platform/streamview/models/events"
	"go.uber.org/zap"
)

// Envelope is the wire framing shared with the streaming server: an event
// name plus an event-specific payload object.
type Envelope struct {
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

func (c *Client) dispatch(msg []byte) {
	var envelope Envelope
	if err := sonic.Unmarshal(msg, &envelope); err != nil {
		logger.SError("WebSocketClient.dispatch: unmarshal error", zap.Error(err))
		return
	}

	switch events.EventKind(envelope.Event) {
	case events.Kind_VideoFrame:
		c.emit(events.Kind_VideoFrame, envelope.Payload)
	case events.Kind_StreamStatus:
		c.emit(events.Kind_StreamStatus, envelope.Payload)
	case events.Kind_RecognitionError:
		c.emit(events.Kind_RecognitionError, envelope.Payload)
	default:
		logger.SDebug("WebSocketClient.dispatch: unknown event",
			zap.String("event", envelope.Event))
	}
}

func (c *Client) send(event string, payload interface{}) bool {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()
	if !connected || conn == nil {
		logger.SDebug("WebSocketClient.send: not connected, dropping command",
			zap.String("event", event))
		return false
	}

	encoded, err := sonic.Marshal(map[string]interface{}{
		"event":   event,
		"payload": payload,
	})
	if err != nil {
		logger.SError("WebSocketClient.send: marshal error", zap.Error(err))
		return false
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
		logger.SError("WebSocketClient.send: WriteMessage error",
			zap.String("event", event),
			zap.Error(err))
		return false
	}
	return true
}

// SubscribeCameraStream asks the server to start pushing frames for the given
// cameras. The reply arrives asynchronously as stream_status events.
func (c *Client) SubscribeCameraStream(cameraIds []string, quality string) bool {
	if len(cameraIds) == 0 {
		return false
	}
	return c.send(events.Command_SubscribeCameraStream, &events.SubscribeCameraStreamRequest{
		CameraIds: cameraIds,
		Quality:   quality,
	})
}

func (c *Client) UnsubscribeCameraStream(cameraIds []string) bool {
	if len(cameraIds) == 0 {
		return false
	}
	return c.send(events.Command_UnsubscribeCameraStream, &events.UnsubscribeCameraStreamRequest{
		CameraIds: cameraIds,
	})
}

// ControlCamera is a fire-and-forget pass-through; the server owns the
// command vocabulary.
func (c *Client) ControlCamera(cameraId string, command string, value interface{}) bool {
	return c.send(events.Command_CameraControl, &events.CameraControlRequest{
		CameraId: cameraId,
		Command:  command,
		Value:    value,
	})
}
