package rest

import "time"

// RegionOfInterest is a rectangle in frame-native pixel coordinates consumed
// by the recognition service to limit its detection area.
type RegionOfInterest struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type ConfidenceConfig struct {
	Threshold   float64 `json:"threshold"`
	AutoApprove bool    `json:"autoApprove"`
}

type RecognitionConfig struct {
	Enabled    bool              `json:"enabled"`
	Roi        *RegionOfInterest `json:"roi,omitempty"`
	Confidence ConfidenceConfig  `json:"confidence"`
}

// CameraConfig is the camera record as served by the configuration API. The
// stream token arrives encrypted and is only usable after secrets.Decrypt.
type CameraConfig struct {
	CameraId    string            `json:"cameraId"`
	Name        string            `json:"name,omitempty"`
	StreamToken string            `json:"streamToken,omitempty"`
	Recognition RecognitionConfig `json:"recognition"`
}

type UpdateRecognitionRequest struct {
	Recognition RecognitionConfig `json:"recognition"`
}

type StreamSessionInfo struct {
	CameraId     string    `json:"cameraId"`
	State        string    `json:"state"`
	Quality      string    `json:"quality,omitempty"`
	LastFrameAt  time.Time `json:"lastFrameAt,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

type DebugListSessionsResponse struct {
	Connected bool                `json:"connected"`
	SocketId  string              `json:"socketId,omitempty"`
	Sessions  []StreamSessionInfo `json:"sessions"`
}
