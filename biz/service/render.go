package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/vacs-platform/streamview/internal/logger"
	"github.com/vacs-platform/streamview/internal/surface"
	"github.com/vacs-platform/streamview/models/events"
	"go.uber.org/zap"
)

// renderFrame decodes off the event goroutine and paints once the decode
// completes. The session only advances on a successful decode: an undecodable
// frame is dropped whole, it neither promotes the session nor feeds the
// liveness clock. Ordering is last-completed-wins; the paint target is
// whichever registration is current when the decode finishes, and a camera
// deregistered mid-decode gets nothing.
func (s *StreamService) renderFrame(session *CameraStreamSession, frame *events.VideoFrame) {
	err := s.renderPool.Submit(func() {
		decoded, err := decodeFramePayload(frame.Frame)
		if err != nil {
			// one bad frame is dropped, never treated as stream death
			logger.SDebug("StreamService: frame decode failed",
				zap.String("cameraId", frame.CameraId),
				zap.Int64("frameNumber", frame.Metadata.FrameNumber),
				zap.Error(err))
			return
		}

		s.mu.RLock()
		reg := s.registry[frame.CameraId]
		s.mu.RUnlock()

		if session.applyFrame(time.Now()) {
			s.notifyStateChange(reg, frame.CameraId, StateStreaming)
		}
		if reg == nil {
			return
		}
		s.paint(reg, frame, decoded)
	})
	if err != nil {
		logger.SDebug("StreamService: render pool rejected frame",
			zap.String("cameraId", frame.CameraId),
			zap.Error(err))
	}
}

func (s *StreamService) paint(reg *registration, frame *events.VideoFrame, decoded image.Image) {
	bounds := decoded.Bounds()
	if reg.options.AutoResize {
		reg.surface.SetNativeSize(surface.Size{
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		})
	}

	if reg.options.ShowMetadata {
		composed := surface.Compose(decoded)
		surface.DrawLabel(composed, overlayLines(frame), surface.LabelScale(bounds.Dx()))
		reg.surface.DrawImage(composed)
	} else {
		reg.surface.DrawImage(decoded)
	}

	if reg.options.OnFrameRendered != nil {
		reg.options.OnFrameRendered(frame.CameraId, frame)
	}
}

func decodeFramePayload(payload string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	decoded, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func overlayLines(frame *events.VideoFrame) []string {
	meta := frame.Metadata
	return []string{
		fmt.Sprintf("%s %dx%d", meta.Quality, meta.Width, meta.Height),
		fmt.Sprintf("clients %d frame %d", meta.Clients, meta.FrameNumber),
	}
}
