package custhttp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/vacs-platform/streamview/internal/configs"
	custerror "github.com/vacs-platform/streamview/internal/error"
	"github.com/vacs-platform/streamview/internal/logger"
)

type HttpServer struct {
	app     *fiber.App
	options *ServerOptions
}

type ServerOptions struct {
	configs      *configs.HttpConfigs
	registration func(app *fiber.App)
	middlewares  []fiber.Handler
	errorHandler fiber.ErrorHandler
	templates    fiber.Views
}

type ServerOptioner func(o *ServerOptions)

func WithGlobalConfigs(c *configs.HttpConfigs) ServerOptioner {
	return func(o *ServerOptions) {
		o.configs = c
	}
}

func WithRegistration(registration func(app *fiber.App)) ServerOptioner {
	return func(o *ServerOptions) {
		o.registration = registration
	}
}

func WithMiddleware(middlewares ...fiber.Handler) ServerOptioner {
	return func(o *ServerOptions) {
		o.middlewares = append(o.middlewares, middlewares...)
	}
}

func WithErrorHandler(handler fiber.ErrorHandler) ServerOptioner {
	return func(o *ServerOptions) {
		o.errorHandler = handler
	}
}

func WithTemplateEngine(views fiber.Views) ServerOptioner {
	return func(o *ServerOptions) {
		o.templates = views
	}
}

func New(options ...ServerOptioner) *HttpServer {
	opts := &ServerOptions{}
	for _, option := range options {
		option(opts)
	}

	fiberConfigs := fiber.Config{
		AppName:               opts.configs.Name,
		DisableStartupMessage: true,
	}
	if opts.errorHandler != nil {
		fiberConfigs.ErrorHandler = opts.errorHandler
	}
	if opts.templates != nil {
		fiberConfigs.Views = opts.templates
	}

	app := fiber.New(fiberConfigs)
	app.Use(recover.New())
	for _, middleware := range opts.middlewares {
		app.Use(middleware)
	}
	if opts.registration != nil {
		opts.registration(app)
	}

	return &HttpServer{
		app:     app,
		options: opts,
	}
}

func (s *HttpServer) Name() string {
	return s.options.configs.Name
}

func (s *HttpServer) Start() error {
	return s.app.Listen(fmt.Sprintf(":%d", s.options.configs.Port))
}

func (s *HttpServer) Stop(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// GlobalErrorHandler maps CustomError codes onto HTTP statuses; everything
// else is an opaque 500.
func GlobalErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var custError *custerror.CustomError
		if errors.As(err, &custError) {
			return c.Status(statusFromCode(custError.Code)).JSON(fiber.Map{
				"message": custError.Message,
			})
		}
		var fiberError *fiber.Error
		if errors.As(err, &fiberError) {
			return c.Status(fiberError.Code).JSON(fiber.Map{
				"message": fiberError.Message,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "internal server error",
		})
	}
}

func statusFromCode(code uint32) int {
	switch code {
	case custerror.CodeInvalidArgument:
		return fiber.StatusBadRequest
	case custerror.CodeNotFound:
		return fiber.StatusNotFound
	case custerror.CodeAlreadyExists:
		return fiber.StatusConflict
	case custerror.CodePermissionDenied:
		return fiber.StatusForbidden
	case custerror.CodeFailedPrecondition:
		return fiber.StatusPreconditionFailed
	case custerror.CodeUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// CommonPublicMiddlewares returns the default middleware chain for locally
// exposed surfaces: request logging through the slog bridge.
func CommonPublicMiddlewares(c *configs.HttpConfigs) []fiber.Handler {
	accessLog := logger.Slog()
	return []fiber.Handler{
		func(ctx *fiber.Ctx) error {
			started := time.Now()
			err := ctx.Next()
			accessLog.Info("http request",
				"server", c.Name,
				"method", ctx.Method(),
				"path", ctx.Path(),
				"status", ctx.Response().StatusCode(),
				"durationMs", time.Since(started).Milliseconds())
			return err
		},
	}
}
