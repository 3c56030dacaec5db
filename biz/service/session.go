package service

import (
	"sync"
	"time"

	"github.com/vacs-platform/streamview/models/events"
	"github.com/vacs-platform/streamview/models/rest"
)

type StreamState string

const (
	StateIdle        StreamState = "idle"
	StateSubscribing StreamState = "subscribing"
	StateStreaming   StreamState = "streaming"
	StateStopped     StreamState = "stopped"
	StateError       StreamState = "error"
)

// CameraStreamSession tracks whether one camera is expected to be delivering
// frames. Status events and frame events arrive on independent channels with
// no ordering guarantee, so every transition below must hold regardless of
// interleaving; a frame is proof of life and always wins over a stale status.
type CameraStreamSession struct {
	CameraId string

	mu             sync.Mutex
	state          StreamState
	quality        string
	lastFrameAt    time.Time
	errorMessage   string
	recoveryIssued bool
}

func newCameraStreamSession(cameraId string, quality string) *CameraStreamSession {
	return &CameraStreamSession{
		CameraId: cameraId,
		state:    StateIdle,
		quality:  quality,
	}
}

func (s *CameraStreamSession) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *CameraStreamSession) Quality() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quality
}

func (s *CameraStreamSession) LastFrameAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrameAt
}

func (s *CameraStreamSession) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorMessage
}

// markSubscribing moves the session into subscribing for a fresh subscribe
// request. It must not fire while already streaming or already subscribing.
func (s *CameraStreamSession) markSubscribing(quality string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateStreaming, StateSubscribing:
		return false
	}
	s.state = StateSubscribing
	s.errorMessage = ""
	s.recoveryIssued = false
	if quality != "" {
		s.quality = quality
	}
	return true
}

// applyStatus drives the machine from a server stream_status event. Returns
// the resulting state and whether it changed.
func (s *CameraStreamSession) applyStatus(status string, message string, now time.Time) (StreamState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.state
	switch status {
	case events.StreamStatus_Started, events.StreamStatus_AlreadyStreaming:
		s.state = StateStreaming
		s.errorMessage = ""
		if s.lastFrameAt.IsZero() {
			// liveness starts counting from the acknowledged start
			s.lastFrameAt = now
		}
	case events.StreamStatus_Stopped:
		s.state = StateStopped
	case events.StreamStatus_Error:
		s.state = StateError
		s.errorMessage = message
	default:
		return previous, false
	}
	return s.state, s.state != previous
}

// applyFrame is the authoritative correction: a decoded frame in any state,
// including error or a server-reported stop, proves the server is actually
// sending and the session self-corrects to streaming. Callers only invoke it
// after the payload decoded; a malformed frame never reaches here.
func (s *CameraStreamSession) applyFrame(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.state
	s.state = StateStreaming
	s.errorMessage = ""
	s.lastFrameAt = now
	s.recoveryIssued = false
	return previous != StateStreaming
}

// markStopped is the transport-teardown path: the session stops expecting
// frames but keeps its registration so a reconnect can resume it.
func (s *CameraStreamSession) markStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return false
	}
	s.state = StateStopped
	return true
}

func (s *CameraStreamSession) setError(message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.state
	s.state = StateError
	s.errorMessage = message
	return previous != StateError
}

// shouldRecover reports whether this session looks dead: nominally streaming,
// silent past the timeout, and not already escalated this silence episode.
func (s *CameraStreamSession) shouldRecover(now time.Time, silenceTimeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStreaming {
		return false
	}
	if s.recoveryIssued {
		return false
	}
	if s.lastFrameAt.IsZero() {
		return false
	}
	return now.Sub(s.lastFrameAt) > silenceTimeout
}

func (s *CameraStreamSession) markRecoveryIssued() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recoveryIssued = true
}

func (s *CameraStreamSession) snapshot() rest.StreamSessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rest.StreamSessionInfo{
		CameraId:     s.CameraId,
		State:        string(s.state),
		Quality:      s.quality,
		LastFrameAt:  s.lastFrameAt,
		ErrorMessage: s.errorMessage,
	}
}
