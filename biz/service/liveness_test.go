package service

import (
	"testing"
	"time"

	"github.com/vacs-platform/streamview/models/events"
)

func newLivenessTestService(t *testing.T, tr *fakeTransport) *StreamService {
	t.Helper()
	svc := NewStreamService(tr, StreamServiceOptions{
		RenderPoolSize: 1,
		Liveness: LivenessOptions{
			Enabled:                  true,
			SilenceTimeout:           10 * time.Second,
			PollInterval:             time.Hour, // checks are driven manually
			VisibilityReconnectDelay: 10 * time.Millisecond,
		},
	})
	t.Cleanup(svc.Shutdown)
	return svc
}

func streamingSession(t *testing.T, tr *fakeTransport, svc *StreamService, cameraId string) {
	t.Helper()
	svc.RegisterSurface(cameraId, &fakeSurface{}, RenderOptions{})
	svc.Subscribe([]string{cameraId}, "")
	tr.emit(events.Kind_StreamStatus, map[string]interface{}{
		"cameraId": cameraId,
		"status":   events.StreamStatus_Started,
	})
}

func TestLivenessFiresOncePerSilenceEpisode(t *testing.T) {
	tr := newFakeTransport()
	svc := newLivenessTestService(t, tr)
	streamingSession(t, tr, svc, "cam-1")

	base := time.Now()
	svc.monitor.now = func() time.Time { return base }

	// within the window: quiet
	svc.monitor.check()
	if tr.reconnects() != 0 {
		t.Fatalf("no reconnect expected inside the silence window, got %d", tr.reconnects())
	}

	// past the window: exactly one reconnect
	svc.monitor.now = func() time.Time { return base.Add(11 * time.Second) }
	svc.monitor.check()
	if tr.reconnects() != 1 {
		t.Fatalf("expected one reconnect after the silence timeout, got %d", tr.reconnects())
	}

	// further polls inside the same episode stay quiet
	svc.monitor.now = func() time.Time { return base.Add(30 * time.Second) }
	svc.monitor.check()
	svc.monitor.check()
	if tr.reconnects() != 1 {
		t.Errorf("the same silence episode must fire only once, got %d", tr.reconnects())
	}
}

func TestLivenessRearmsAfterFrame(t *testing.T) {
	tr := newFakeTransport()
	svc := newLivenessTestService(t, tr)
	streamingSession(t, tr, svc, "cam-1")

	base := time.Now()
	svc.monitor.now = func() time.Time { return base.Add(11 * time.Second) }
	svc.monitor.check()
	if tr.reconnects() != 1 {
		t.Fatalf("expected the first episode to fire, got %d", tr.reconnects())
	}

	// a frame ends the episode and restarts the clock
	svc.Session("cam-1").applyFrame(base.Add(12 * time.Second))

	svc.monitor.now = func() time.Time { return base.Add(15 * time.Second) }
	svc.monitor.check()
	if tr.reconnects() != 1 {
		t.Errorf("fresh frame must reset the window, got %d reconnects", tr.reconnects())
	}

	svc.monitor.now = func() time.Time { return base.Add(25 * time.Second) }
	svc.monitor.check()
	if tr.reconnects() != 2 {
		t.Errorf("a new silence episode must fire again, got %d reconnects", tr.reconnects())
	}
}

func TestLivenessIgnoresNonStreamingSessions(t *testing.T) {
	tr := newFakeTransport()
	svc := newLivenessTestService(t, tr)

	svc.RegisterSurface("cam-1", &fakeSurface{}, RenderOptions{})
	svc.Subscribe([]string{"cam-1"}, "")

	// still subscribing, never acknowledged: no silence to measure
	svc.monitor.now = func() time.Time { return time.Now().Add(time.Minute) }
	svc.monitor.check()
	if tr.reconnects() != 0 {
		t.Errorf("sessions that never started streaming must not trigger recovery, got %d", tr.reconnects())
	}
}

func TestLivenessSuspendedWhileHidden(t *testing.T) {
	tr := newFakeTransport()
	svc := newLivenessTestService(t, tr)
	streamingSession(t, tr, svc, "cam-1")

	base := time.Now()
	svc.monitor.now = func() time.Time { return base.Add(time.Minute) }

	svc.SetVisible(false)
	svc.monitor.check()
	if tr.reconnects() != 0 {
		t.Errorf("hidden page must suspend recovery, got %d reconnects", tr.reconnects())
	}
}

func TestVisibilityRegainForcesReconnect(t *testing.T) {
	tr := newFakeTransport()
	svc := newLivenessTestService(t, tr)

	svc.SetVisible(false)
	svc.SetVisible(true)

	deadline := time.Now().Add(2 * time.Second)
	for tr.reconnects() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if tr.reconnects() != 1 {
		t.Errorf("regaining visibility must force exactly one reconnect, got %d", tr.reconnects())
	}
}

func TestVisibilityRepeatedShowIsIdempotent(t *testing.T) {
	tr := newFakeTransport()
	svc := newLivenessTestService(t, tr)

	// already visible; redundant show must not schedule anything
	svc.SetVisible(true)
	time.Sleep(50 * time.Millisecond)
	if tr.reconnects() != 0 {
		t.Errorf("redundant visibility notification must be a no-op, got %d reconnects", tr.reconnects())
	}
}
