package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"

	"github.com/set-night/screenwatch/internal/domain"
	"github.com/set-night/screenwatch/internal/repository"
	"github.com/set-night/screenwatch/internal/service"
	"github.com/set-night/screenwatch/internal/websocket"
)

// Handler holds all dependencies needed by the HTTP command surface.
type Handler struct {
	monitor   *service.Monitor
	client    *service.OpenRouterClient
	settings  *repository.SettingsStore
	sessions  *repository.SessionStore
	responses *repository.ResponseStore
	logs      *repository.DebugLogStore
	events    *service.Broadcaster
	validate  *validator.Validate
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Monitor   *service.Monitor
	Client    *service.OpenRouterClient
	Settings  *repository.SettingsStore
	Sessions  *repository.SessionStore
	Responses *repository.ResponseStore
	Logs      *repository.DebugLogStore
	Events    *service.Broadcaster
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		monitor:   deps.Monitor,
		client:    deps.Client,
		settings:  deps.Settings,
		sessions:  deps.Sessions,
		responses: deps.Responses,
		logs:      deps.Logs,
		events:    deps.Events,
		validate:  validator.New(),
	}
}

// Register mounts all routes on the app.
func (h *Handler) Register(app *fiber.App) {
	api := app.Group("/api")

	session := api.Group("/session")
	session.Post("/start", h.startSession)
	session.Post("/pause", h.pauseSession)
	session.Post("/resume", h.resumeSession)
	session.Post("/stop", h.stopSession)
	session.Patch("/settings", h.patchSessionSettings)

	api.Post("/area", h.selectArea)
	api.Get("/state", h.getState)

	api.Get("/settings", h.getSettings)
	api.Put("/settings", h.putSettings)

	api.Get("/responses", h.listResponses)
	api.Get("/sessions", h.listSessions)
	api.Get("/logs", h.listLogs)

	api.Post("/test", h.testModel)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", fiberws.New(func(c *fiberws.Conn) {
		websocket.ServeWs(h.events, c)
	}))
}

// fail maps domain errors to HTTP status codes and renders a uniform error
// body.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionExists):
		status = fiber.StatusConflict
	case errors.Is(err, domain.ErrNoSession),
		errors.Is(err, domain.ErrNoActiveSession),
		errors.Is(err, domain.ErrNoPausedSession):
		status = fiber.StatusConflict
	case errors.Is(err, domain.ErrMissingPrompt),
		errors.Is(err, domain.ErrMissingAPIKey),
		errors.Is(err, domain.ErrInvalidArea):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}
