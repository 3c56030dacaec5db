package main

import (
	"context"
	"time"

	publicapi "github.com/vacs-platform/streamview/api/public"
	"github.com/vacs-platform/streamview/biz/service"
	"github.com/vacs-platform/streamview/internal/app"
	"github.com/vacs-platform/streamview/internal/cache"
	"github.com/vacs-platform/streamview/internal/configs"
	custhttp "github.com/vacs-platform/streamview/internal/http"
	"github.com/vacs-platform/streamview/internal/logger"
	"github.com/vacs-platform/streamview/internal/ws"
	"go.uber.org/zap"
)

func main() {
	app.Run(
		time.Second*10,
		func(configs *configs.Configs, zl *zap.Logger) []app.Optioner {
			cache.Init()

			streamClient := ws.NewClient(
				ws.WithGlobalConfigs(&configs.StreamServer),
			)
			service.Init(streamClient)

			return []app.Optioner{
				app.WithHttpServer(custhttp.New(
					custhttp.WithGlobalConfigs(&configs.Public),
					custhttp.WithErrorHandler(custhttp.GlobalErrorHandler()),
					custhttp.WithRegistration(publicapi.ServiceRegistration()),
					custhttp.WithTemplateEngine(publicapi.TemplateEngine()),
					custhttp.WithMiddleware(custhttp.CommonPublicMiddlewares(&configs.Public)...),
				)),
				app.WithWebSocketClient(streamClient),
				app.WithShutdownHook(func(ctx context.Context) {
					service.Shutdown()
					logger.Close()
				}),
			}
		},
	)
}
