package publicapi

import (
	"bytes"
	"image/jpeg"

	"github.com/gofiber/fiber/v2"
	"github.com/vacs-platform/streamview/biz/service"
	custerror "github.com/vacs-platform/streamview/internal/error"
	"github.com/vacs-platform/streamview/internal/logger"
	"github.com/vacs-platform/streamview/models/events"
	"go.uber.org/zap"
)

func GETDebugListStreams(ctx *fiber.Ctx) error {
	resp, err := service.
		GetCommandService().
		DebugListSessions(ctx.Context())
	if err != nil {
		return err
	}
	logger.SDebug("GETDebugListStreams", logger.Json("response", resp))
	return ctx.JSON(resp)
}

func GETDebugStreamSnapshot(ctx *fiber.Ctx) error {
	cameraId := ctx.Params("cameraId")
	snapshot, err := service.
		GetStreamService().
		Snapshot(cameraId)
	if err != nil {
		return err
	}

	var buffer bytes.Buffer
	if err := jpeg.Encode(&buffer, snapshot, &jpeg.Options{Quality: 80}); err != nil {
		return err
	}
	ctx.Set(fiber.HeaderContentType, "image/jpeg")
	return ctx.Send(buffer.Bytes())
}

func POSTStreamSubscribe(ctx *fiber.Ctx) error {
	cameraId := ctx.Params("cameraId")
	quality := ctx.Query("quality")
	if !service.GetStreamService().Watch(cameraId, quality) {
		return custerror.FormatUnavailable("streaming server not connected")
	}
	logger.SInfo("POSTStreamSubscribe: watching",
		zap.String("cameraId", cameraId),
		zap.String("quality", quality))
	return ctx.SendStatus(fiber.StatusAccepted)
}

func POSTStreamUnsubscribe(ctx *fiber.Ctx) error {
	cameraId := ctx.Params("cameraId")
	service.GetStreamService().Unsubscribe([]string{cameraId})
	logger.SInfo("POSTStreamUnsubscribe: stopped", zap.String("cameraId", cameraId))
	return ctx.SendStatus(fiber.StatusAccepted)
}

func POSTCameraControl(ctx *fiber.Ctx) error {
	var req events.CameraControlRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.CameraId = ctx.Params("cameraId")
	service.GetCommandService().ControlCamera(ctx.Context(), &req)
	return ctx.SendStatus(fiber.StatusAccepted)
}

func GETIndexPage(ctx *fiber.Ctx) error {
	resp, err := service.
		GetCommandService().
		DebugListSessions(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.Render("index", fiber.Map{
		"Connected": resp.Connected,
		"SocketId":  resp.SocketId,
		"Sessions":  resp.Sessions,
	})
}

func GETHealthcheck(ctx *fiber.Ctx) error {
	return ctx.SendStatus(200)
}
