package publicapi

import "github.com/gofiber/fiber/v2"

func ServiceRegistration() func(app *fiber.App) {
	return func(app *fiber.App) {
		debugGroup := app.Group("/api/debug")
		debugGroup.Get("/streams", GETDebugListStreams)
		debugGroup.Post("/streams/:cameraId/subscribe", POSTStreamSubscribe)
		debugGroup.Post("/streams/:cameraId/unsubscribe", POSTStreamUnsubscribe)
		debugGroup.Get("/streams/:cameraId/snapshot", GETDebugStreamSnapshot)
		debugGroup.Post("/cameras/:cameraId/control", POSTCameraControl)

		app.Get("/", GETIndexPage)
		app.Get("/healthcheck", GETHealthcheck)
	}
}
