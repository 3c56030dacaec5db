package service

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/vacs-platform/streamview/internal/cache"
	"github.com/vacs-platform/streamview/internal/cameraapi"
	custerror "github.com/vacs-platform/streamview/internal/error"
	"github.com/vacs-platform/streamview/internal/logger"
	"github.com/vacs-platform/streamview/internal/surface"
	"github.com/vacs-platform/streamview/models/rest"
	"go.uber.org/zap"
)

// MinRegionSize is the smallest accepted ROI edge, in frame-native pixels.
// Anything smaller is rejected client-side before any network call.
const MinRegionSize = 10

const cameraConfigTTL = 5 * time.Minute

// RoiService owns the region-of-interest editing workflow: transient drawing
// state scaled into frame-native pixels, validation, and a merge-save that
// preserves the camera's existing recognition confidence settings.
type RoiService struct {
	apiClient   cameraapi.Client
	configCache *ristretto.Cache
}

func NewRoiService(apiClient cameraapi.Client) *RoiService {
	return &RoiService{
		apiClient:   apiClient,
		configCache: cache.Cache(),
	}
}

// RoiEditor holds one in-progress rectangle. It exists only while the editor
// is open; Discard or a successful save ends its life either way.
type RoiEditor struct {
	cameraId string
	surf     surface.Surface

	drawing bool
	startX  float64
	startY  float64
	rect    *rest.RegionOfInterest
}

func (s *RoiService) OpenEditor(cameraId string, surf surface.Surface) *RoiEditor {
	return &RoiEditor{
		cameraId: cameraId,
		surf:     surf,
	}
}

// scale maps display (CSS-like) coordinates into frame-native pixels so the
// saved rectangle is independent of how large the viewer happens to be.
func (e *RoiEditor) scale(x float64, y float64) (float64, float64) {
	native := e.surf.NativeSize()
	display := e.surf.DisplaySize()
	if native.Empty() || display.Empty() {
		return x, y
	}
	scaleX := float64(native.Width) / float64(display.Width)
	scaleY := float64(native.Height) / float64(display.Height)
	return x * scaleX, y * scaleY
}

// PointerDown starts a new rectangle and clears any prior one.
func (e *RoiEditor) PointerDown(x float64, y float64) {
	nx, ny := e.scale(x, y)
	e.drawing = true
	e.startX = nx
	e.startY = ny
	e.rect = nil
}

// PointerMove recomputes the normalized rectangle, valid regardless of drag
// direction.
func (e *RoiEditor) PointerMove(x float64, y float64) {
	if !e.drawing {
		return
	}
	nx, ny := e.scale(x, y)
	e.rect = normalizeRect(e.startX, e.startY, nx, ny)
}

func (e *RoiEditor) PointerUp(x float64, y float64) {
	if !e.drawing {
		return
	}
	e.PointerMove(x, y)
	e.drawing = false
}

func (e *RoiEditor) Rect() (rest.RegionOfInterest, bool) {
	if e.rect == nil {
		return rest.RegionOfInterest{}, false
	}
	return *e.rect, true
}

func (e *RoiEditor) Discard() {
	e.drawing = false
	e.rect = nil
}

func normalizeRect(x0, y0, x1, y1 float64) *rest.RegionOfInterest {
	minX, maxX := x0, x1
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := y0, y1
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return &rest.RegionOfInterest{
		X:      int(minX),
		Y:      int(minY),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}
}

// Save validates the rectangle and persists it merged into the camera's
// existing recognition configuration, so the enabled flag and confidence
// thresholds are never silently reset.
func (s *RoiService) Save(ctx context.Context, editor *RoiEditor) error {
	rect, ok := editor.Rect()
	if !ok {
		return custerror.FormatFailedPrecondition("no region drawn")
	}
	if rect.Width < MinRegionSize || rect.Height < MinRegionSize {
		return custerror.FormatInvalidArgument(
			"region too small: %dx%d, minimum is %dx%d",
			rect.Width, rect.Height, MinRegionSize, MinRegionSize)
	}

	camera, err := s.cameraConfig(ctx, editor.cameraId)
	if err != nil {
		logger.SError("RoiService.Save: fetch camera config failed",
			zap.String("cameraId", editor.cameraId),
			zap.Error(err))
		return err
	}

	merged := camera.Recognition
	merged.Roi = &rect
	if err := s.apiClient.UpdateRecognition(ctx, editor.cameraId, &merged); err != nil {
		logger.SError("RoiService.Save: update failed",
			zap.String("cameraId", editor.cameraId),
			zap.Error(err))
		return err
	}

	camera.Recognition = merged
	s.storeConfig(editor.cameraId, camera)
	logger.SInfo("RoiService.Save: region saved",
		zap.String("cameraId", editor.cameraId),
		logger.Json("roi", rect))
	return nil
}

func (s *RoiService) cameraConfig(ctx context.Context, cameraId string) (*rest.CameraConfig, error) {
	if s.configCache != nil {
		if cached, ok := s.configCache.Get(configCacheKey(cameraId)); ok {
			if camera, ok := cached.(*rest.CameraConfig); ok {
				return camera, nil
			}
		}
	}
	camera, err := s.apiClient.GetCamera(ctx, cameraId)
	if err != nil {
		return nil, err
	}
	s.storeConfig(cameraId, camera)
	return camera, nil
}

func (s *RoiService) storeConfig(cameraId string, camera *rest.CameraConfig) {
	if s.configCache == nil {
		return
	}
	s.configCache.SetWithTTL(configCacheKey(cameraId), camera, 1, cameraConfigTTL)
}

func configCacheKey(cameraId string) string {
	return "camera-config/" + cameraId
}
