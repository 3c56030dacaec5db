package events

// EventKind identifies every message kind crossing the streaming transport,
// both transport lifecycle notifications raised locally and events pushed by
// the server. Handlers subscribe by kind instead of by raw event name.
type EventKind string

const (
	Kind_Connected        EventKind = "connected"
	Kind_Disconnected     EventKind = "disconnected"
	Kind_Reconnected      EventKind = "reconnected"
	Kind_ReconnectFailed  EventKind = "reconnect_failed"
	Kind_VideoFrame       EventKind = "video_frame"
	Kind_StreamStatus     EventKind = "stream_status"
	Kind_RecognitionError EventKind = "recognition_error"
)

const (
	Command_SubscribeCameraStream   = "subscribe_camera_stream"
	Command_UnsubscribeCameraStream = "unsubscribe_camera_stream"
	Command_CameraControl           = "camera_control"
)

const (
	Quality_Low    = "low"
	Quality_Medium = "medium"
	Quality_High   = "high"
)

const (
	StreamStatus_Started          = "started"
	StreamStatus_AlreadyStreaming = "already_streaming"
	StreamStatus_Stopped          = "stopped"
	StreamStatus_Error            = "error"
)

type SubscribeCameraStreamRequest struct {
	CameraIds []string `json:"cameraIds"`
	Quality   string   `json:"quality"`
}

type UnsubscribeCameraStreamRequest struct {
	CameraIds []string `json:"cameraIds"`
}

type CameraControlRequest struct {
	CameraId string      `json:"cameraId"`
	Command  string      `json:"command"`
	Value    interface{} `json:"value,omitempty"`
}

type FrameMetadata struct {
	Quality     string `json:"quality,omitempty" mapstructure:"quality"`
	Width       int    `json:"width,omitempty" mapstructure:"width"`
	Height      int    `json:"height,omitempty" mapstructure:"height"`
	Clients     int    `json:"clients,omitempty" mapstructure:"clients"`
	FrameNumber int64  `json:"frameNumber,omitempty" mapstructure:"frameNumber"`
}

// VideoFrame carries one base64-encoded JPEG frame for a single camera.
type VideoFrame struct {
	CameraId  string        `json:"cameraId" mapstructure:"cameraId"`
	Frame     string        `json:"frame" mapstructure:"frame"`
	Timestamp int64         `json:"timestamp,omitempty" mapstructure:"timestamp"`
	Metadata  FrameMetadata `json:"metadata,omitempty" mapstructure:"metadata"`
}

type StreamStatus struct {
	CameraId string `json:"cameraId" mapstructure:"cameraId"`
	Status   string `json:"status" mapstructure:"status"`
	Message  string `json:"message,omitempty" mapstructure:"message"`
}

type RecognitionError struct {
	CameraId string `json:"cameraId,omitempty" mapstructure:"cameraId"`
	Message  string `json:"message,omitempty" mapstructure:"message"`
}
