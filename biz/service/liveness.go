package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vacs-platform/streamview/internal/logger"
	"go.uber.org/zap"
)

const (
	defaultSilenceTimeout           = 10 * time.Second
	defaultPollInterval             = 5 * time.Second
	defaultVisibilityReconnectDelay = 500 * time.Millisecond
)

// LivenessOptions make the health-check behavior an explicit choice of the
// caller instead of a separate viewer implementation.
type LivenessOptions struct {
	Enabled                  bool
	SilenceTimeout           time.Duration
	PollInterval             time.Duration
	VisibilityReconnectDelay time.Duration
}

func (o *LivenessOptions) withDefaults() LivenessOptions {
	opts := *o
	if opts.SilenceTimeout <= 0 {
		opts.SilenceTimeout = defaultSilenceTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.VisibilityReconnectDelay <= 0 {
		opts.VisibilityReconnectDelay = defaultVisibilityReconnectDelay
	}
	return opts
}

// livenessMonitor detects sessions that report streaming but have gone
// silent. A frozen stream on a socket that still claims to be connected is
// treated as transport-wide damage, so recovery escalates to a full
// reconnect rather than a per-camera re-subscribe.
type livenessMonitor struct {
	service   *StreamService
	options   LivenessOptions
	scheduler *gocron.Scheduler

	mu      sync.Mutex
	visible bool

	// injectable for tests
	now func() time.Time
}

func newLivenessMonitor(service *StreamService, options LivenessOptions) *livenessMonitor {
	return &livenessMonitor{
		service: service,
		options: options.withDefaults(),
		visible: true,
		now:     time.Now,
	}
}

func (m *livenessMonitor) start() {
	if !m.options.Enabled {
		logger.SDebug("livenessMonitor: disabled")
		return
	}
	scheduler := gocron.NewScheduler(time.Local)
	scheduler.SingletonModeAll()
	if _, err := scheduler.Every(m.options.PollInterval).Do(m.check); err != nil {
		logger.SError("livenessMonitor: schedule failed", zap.Error(err))
		return
	}
	scheduler.StartAsync()
	m.scheduler = scheduler
	logger.SInfo("livenessMonitor: started",
		zap.Duration("pollInterval", m.options.PollInterval),
		zap.Duration("silenceTimeout", m.options.SilenceTimeout))
}

func (m *livenessMonitor) stop() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
}

// check runs every poll interval. It fires at most one reconnect per silence
// episode: every dead session is marked before escalating, and the mark is
// only cleared by the next rendered frame.
func (m *livenessMonitor) check() {
	m.mu.Lock()
	visible := m.visible
	m.mu.Unlock()
	if !visible {
		// nobody can see the streams; reconnecting now is wasted work
		return
	}

	now := m.now()
	dead := make([]*CameraStreamSession, 0)
	for _, session := range m.service.allSessions() {
		if session.shouldRecover(now, m.options.SilenceTimeout) {
			dead = append(dead, session)
		}
	}
	if len(dead) == 0 {
		return
	}

	for _, session := range dead {
		session.markRecoveryIssued()
		logger.SWarn("livenessMonitor: stream frozen",
			zap.String("cameraId", session.CameraId),
			zap.Time("lastFrameAt", session.LastFrameAt()))
	}

	logger.SWarn("livenessMonitor: forcing transport reconnect",
		zap.Int("frozenStreams", len(dead)))
	m.service.ForceReconnect(context.Background())
}

// setVisible suspends the monitor while hidden. Regaining visibility forces a
// reconnect after a short delay instead of trusting the next poll: a
// throttled background timer may not have run on schedule, so the poll's own
// bookkeeping cannot be trusted across a hidden period.
func (m *livenessMonitor) setVisible(visible bool) {
	m.mu.Lock()
	wasVisible := m.visible
	m.visible = visible
	m.mu.Unlock()

	if !m.options.Enabled {
		return
	}
	if visible && !wasVisible {
		logger.SInfo("livenessMonitor: visibility regained, scheduling reconnect")
		time.AfterFunc(m.options.VisibilityReconnectDelay, func() {
			m.service.ForceReconnect(context.Background())
		})
	}
}
