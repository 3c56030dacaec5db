package service

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/carlmjohnson/flowmatic"
	"github.com/mitchellh/mapstructure"
	"github.com/panjf2000/ants/v2"
	custcon "github.com/vacs-platform/streamview/internal/concurrent"
	custerror "github.com/vacs-platform/streamview/internal/error"
	"github.com/vacs-platform/streamview/internal/logger"
	"github.com/vacs-platform/streamview/internal/surface"
	"github.com/vacs-platform/streamview/internal/ws"
	"github.com/vacs-platform/streamview/models/events"
	"github.com/vacs-platform/streamview/models/rest"
	"go.uber.org/zap"
)

// Transport is the process-wide streaming connection the service drives. It
// is satisfied by ws.Client and by test fakes.
type Transport interface {
	Connected() bool
	SocketId() string
	SubscribeCameraStream(cameraIds []string, quality string) bool
	UnsubscribeCameraStream(cameraIds []string) bool
	ControlCamera(cameraId string, command string, value interface{}) bool
	ForceReconnect(ctx context.Context)
	On(kind events.EventKind, handler ws.EventHandler) uint64
	Off(kind events.EventKind, id uint64)
}

// RenderOptions configure one camera's registration.
type RenderOptions struct {
	AutoResize   bool
	ShowMetadata bool

	OnFrameRendered func(cameraId string, frame *events.VideoFrame)
	OnStateChange   func(cameraId string, state StreamState)
	OnStreamStopped func(cameraId string)
}

type registration struct {
	cameraId string
	surface  surface.Surface
	options  RenderOptions
}

type StreamServiceOptions struct {
	DefaultQuality string
	RenderPoolSize int
	Liveness       LivenessOptions
}

// StreamService owns the cameraId -> surface registry, the per-camera
// sessions, frame rendering and the liveness monitor. One instance is
// constructed at startup and shared by every viewer.
type StreamService struct {
	transport Transport
	options   StreamServiceOptions

	mu       sync.RWMutex
	registry map[string]*registration
	sessions map[string]*CameraStreamSession

	renderPool *ants.Pool
	monitor    *livenessMonitor

	handlerIds map[events.EventKind]uint64
}

func NewStreamService(transport Transport, options StreamServiceOptions) *StreamService {
	if options.DefaultQuality == "" {
		options.DefaultQuality = events.Quality_Medium
	}
	if options.RenderPoolSize <= 0 {
		options.RenderPoolSize = 10
	}
	s := &StreamService{
		transport:  transport,
		options:    options,
		registry:   map[string]*registration{},
		sessions:   map[string]*CameraStreamSession{},
		renderPool: custcon.New(options.RenderPoolSize),
		handlerIds: map[events.EventKind]uint64{},
	}
	s.monitor = newLivenessMonitor(s, options.Liveness)
	s.bind()
	s.monitor.start()
	return s
}

func (s *StreamService) bind() {
	s.handlerIds[events.Kind_VideoFrame] = s.transport.On(events.Kind_VideoFrame,
		func(kind events.EventKind, payload map[string]interface{}) {
			var frame events.VideoFrame
			if err := mapstructure.Decode(payload, &frame); err != nil {
				logger.SError("StreamService: video_frame payload decode failed", zap.Error(err))
				return
			}
			s.handleVideoFrame(&frame)
		})
	s.handlerIds[events.Kind_StreamStatus] = s.transport.On(events.Kind_StreamStatus,
		func(kind events.EventKind, payload map[string]interface{}) {
			var status events.StreamStatus
			if err := mapstructure.Decode(payload, &status); err != nil {
				logger.SError("StreamService: stream_status payload decode failed", zap.Error(err))
				return
			}
			s.handleStreamStatus(&status)
		})
	s.handlerIds[events.Kind_RecognitionError] = s.transport.On(events.Kind_RecognitionError,
		func(kind events.EventKind, payload map[string]interface{}) {
			var recErr events.RecognitionError
			if err := mapstructure.Decode(payload, &recErr); err != nil {
				logger.SError("StreamService: recognition_error payload decode failed", zap.Error(err))
				return
			}
			s.handleRecognitionError(&recErr)
		})
	s.handlerIds[events.Kind_Disconnected] = s.transport.On(events.Kind_Disconnected,
		func(kind events.EventKind, payload map[string]interface{}) {
			s.handleDisconnected()
		})
	s.handlerIds[events.Kind_Reconnected] = s.transport.On(events.Kind_Reconnected,
		func(kind events.EventKind, payload map[string]interface{}) {
			s.handleReconnected()
		})
}

// RegisterSurface binds a render target to a camera, replacing any prior
// registration without notifying the previous owner. The session is created
// here on first interest.
func (s *StreamService) RegisterSurface(cameraId string, target surface.Surface, options RenderOptions) {
	s.mu.Lock()
	s.registry[cameraId] = &registration{
		cameraId: cameraId,
		surface:  target,
		options:  options,
	}
	if _, ok := s.sessions[cameraId]; !ok {
		s.sessions[cameraId] = newCameraStreamSession(cameraId, s.options.DefaultQuality)
	}
	s.mu.Unlock()

	logger.SDebug("StreamService.RegisterSurface: registered",
		zap.String("cameraId", cameraId))
}

func (s *StreamService) DeregisterSurface(cameraId string) {
	s.mu.Lock()
	delete(s.registry, cameraId)
	s.mu.Unlock()
}

// Subscribe requests frames for the given cameras. Returns false without
// sending anything when the transport is down; that is a normal state, the
// caller retries after the next reconnect event.
func (s *StreamService) Subscribe(cameraIds []string, quality string) bool {
	if quality == "" {
		quality = s.options.DefaultQuality
	}
	if !s.transport.Connected() {
		logger.SDebug("StreamService.Subscribe: transport not connected")
		return false
	}

	requested := make([]string, 0, len(cameraIds))
	s.mu.Lock()
	for _, cameraId := range cameraIds {
		session, ok := s.sessions[cameraId]
		if !ok {
			session = newCameraStreamSession(cameraId, quality)
			s.sessions[cameraId] = session
		}
		if session.markSubscribing(quality) {
			requested = append(requested, cameraId)
		}
	}
	s.mu.Unlock()

	if len(requested) == 0 {
		return false
	}
	return s.transport.SubscribeCameraStream(requested, quality)
}

// Unsubscribe stops a camera on the operator's request: the session is
// removed outright, so a stray frame arriving later is dropped instead of
// resurrecting a stream the user explicitly stopped. Surface registrations
// survive; a later Subscribe reuses them.
func (s *StreamService) Unsubscribe(cameraIds []string) {
	s.mu.Lock()
	removed := make([]*registration, 0, len(cameraIds))
	for _, cameraId := range cameraIds {
		if _, ok := s.sessions[cameraId]; ok {
			delete(s.sessions, cameraId)
			if reg, exists := s.registry[cameraId]; exists {
				removed = append(removed, reg)
			}
		}
	}
	s.mu.Unlock()

	s.transport.UnsubscribeCameraStream(cameraIds)
	for _, reg := range removed {
		if reg.options.OnStreamStopped != nil {
			reg.options.OnStreamStopped(reg.cameraId)
		}
	}
}

// Watch is the operational entry point used by the debug API: it attaches an
// in-memory surface to the camera when none is registered yet and subscribes
// it, so a stream can be driven and snapshotted without a browser viewer.
func (s *StreamService) Watch(cameraId string, quality string) bool {
	s.mu.RLock()
	_, registered := s.registry[cameraId]
	s.mu.RUnlock()

	if !registered {
		s.RegisterSurface(cameraId, surface.NewImageSurface(surface.Size{}), RenderOptions{
			AutoResize:   true,
			ShowMetadata: true,
		})
	}
	return s.Subscribe([]string{cameraId}, quality)
}

func (s *StreamService) ControlCamera(cameraId string, command string, value interface{}) bool {
	return s.transport.ControlCamera(cameraId, command, value)
}

func (s *StreamService) handleVideoFrame(frame *events.VideoFrame) {
	s.mu.RLock()
	session := s.sessions[frame.CameraId]
	s.mu.RUnlock()

	if session == nil {
		// no one subscribed this camera; common, not an error
		logger.SDebug("StreamService: dropping frame for unknown camera",
			zap.String("cameraId", frame.CameraId))
		return
	}
	s.renderFrame(session, frame)
}

func (s *StreamService) handleStreamStatus(status *events.StreamStatus) {
	s.mu.RLock()
	session := s.sessions[status.CameraId]
	reg := s.registry[status.CameraId]
	s.mu.RUnlock()

	if session == nil {
		logger.SDebug("StreamService: status for unknown camera",
			zap.String("cameraId", status.CameraId),
			zap.String("status", status.Status))
		return
	}

	state, changed := session.applyStatus(status.Status, status.Message, time.Now())
	logger.SDebug("StreamService: stream status",
		zap.String("cameraId", status.CameraId),
		zap.String("status", status.Status),
		zap.String("state", string(state)))
	if changed {
		s.notifyStateChange(reg, status.CameraId, state)
	}
}

func (s *StreamService) handleRecognitionError(recErr *events.RecognitionError) {
	s.mu.RLock()
	session := s.sessions[recErr.CameraId]
	reg := s.registry[recErr.CameraId]
	s.mu.RUnlock()

	if session == nil {
		return
	}
	if session.setError(recErr.Message) {
		s.notifyStateChange(reg, recErr.CameraId, StateError)
	}
}

// handleDisconnected marks every session stopped but leaves the surface
// registry untouched: a later reconnect re-subscribes against it.
func (s *StreamService) handleDisconnected() {
	s.mu.RLock()
	sessions := make([]*CameraStreamSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	for _, session := range sessions {
		if session.markStopped() {
			s.mu.RLock()
			reg := s.registry[session.CameraId]
			s.mu.RUnlock()
			s.notifyStateChange(reg, session.CameraId, StateStopped)
		}
	}
}

func (s *StreamService) handleReconnected() {
	s.mu.RLock()
	sessions := make([]*CameraStreamSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	// a reconnect restarts every stream. A session may still read streaming
	// here when the disconnect event was processed late, so force it through
	// stopped or markSubscribing would refuse the re-subscribe.
	byQuality := map[string][]string{}
	for _, session := range sessions {
		session.markStopped()
		byQuality[session.Quality()] = append(byQuality[session.Quality()], session.CameraId)
	}

	for quality, cameraIds := range byQuality {
		logger.SInfo("StreamService: re-subscribing after reconnect",
			zap.Strings("cameraIds", cameraIds),
			zap.String("quality", quality))
		s.Subscribe(cameraIds, quality)
	}
}

func (s *StreamService) notifyStateChange(reg *registration, cameraId string, state StreamState) {
	if reg == nil || reg.options.OnStateChange == nil {
		return
	}
	reg.options.OnStateChange(cameraId, state)
}

func (s *StreamService) ForceReconnect(ctx context.Context) {
	s.transport.ForceReconnect(ctx)
}

// SetVisible reflects whether any operator can currently see the viewers;
// hidden suspends liveness recovery, regaining visibility forces a reconnect.
func (s *StreamService) SetVisible(visible bool) {
	s.monitor.setVisible(visible)
}

func (s *StreamService) Session(cameraId string) *CameraStreamSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[cameraId]
}

func (s *StreamService) allSessions() []*CameraStreamSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]*CameraStreamSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

func (s *StreamService) ListSessions() *rest.DebugListSessionsResponse {
	sessions := s.allSessions()
	infos := make([]rest.StreamSessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.snapshot())
	}
	return &rest.DebugListSessionsResponse{
		Connected: s.transport.Connected(),
		SocketId:  s.transport.SocketId(),
		Sessions:  infos,
	}
}

// Snapshot returns the camera's last painted frame when its surface keeps one.
func (s *StreamService) Snapshot(cameraId string) (image.Image, error) {
	s.mu.RLock()
	reg := s.registry[cameraId]
	s.mu.RUnlock()
	if reg == nil {
		return nil, custerror.FormatNotFound("no surface registered for camera %s", cameraId)
	}
	snapshotter, ok := reg.surface.(surface.Snapshotter)
	if !ok {
		return nil, custerror.FormatFailedPrecondition("surface for camera %s cannot snapshot", cameraId)
	}
	snap := snapshotter.Snapshot()
	if snap == nil {
		return nil, custerror.FormatNotFound("no frame painted yet for camera %s", cameraId)
	}
	return snap, nil
}

func (s *StreamService) Shutdown() {
	logger.SInfo("StreamService.Shutdown: shutdown received")
	s.monitor.stop()

	cameraIds := make([]string, 0)
	s.mu.RLock()
	for cameraId := range s.sessions {
		cameraIds = append(cameraIds, cameraId)
	}
	s.mu.RUnlock()

	if err := flowmatic.Each(4, cameraIds, func(cameraId string) error {
		s.Unsubscribe([]string{cameraId})
		return nil
	}); err != nil {
		logger.SDebug("StreamService.Shutdown: unsubscribe error", zap.Error(err))
	}

	for kind, id := range s.handlerIds {
		s.transport.Off(kind, id)
	}
	s.renderPool.Release()
	logger.SDebug("StreamService.Shutdown: released render pool")
}
