package service

import (
	"context"

	"github.com/vacs-platform/streamview/internal/logger"
	"github.com/vacs-platform/streamview/models/events"
	"github.com/vacs-platform/streamview/models/rest"
	"go.uber.org/zap"
)

// CommandService is the thin camera-control surface: pass-through commands
// plus the debug listings served by the public API.
type CommandService struct {
	streamService *StreamService
}

func NewCommandService(streamService *StreamService) *CommandService {
	return &CommandService{
		streamService: streamService,
	}
}

func (s *CommandService) Shutdown() {
}

// ControlCamera forwards a PTZ-style command as-is; the server owns the
// command vocabulary, nothing is validated here.
func (s *CommandService) ControlCamera(ctx context.Context, req *events.CameraControlRequest) {
	logger.SInfo("requested to perform camera control",
		zap.String("cameraId", req.CameraId),
		zap.String("command", req.Command))

	if !s.streamService.ControlCamera(req.CameraId, req.Command, req.Value) {
		logger.SDebug("camera control dropped, transport not connected",
			zap.String("cameraId", req.CameraId))
		return
	}
	logger.SDebug("camera control sent", zap.String("cameraId", req.CameraId))
}

func (s *CommandService) DebugListSessions(ctx context.Context) (*rest.DebugListSessionsResponse, error) {
	return s.streamService.ListSessions(), nil
}
