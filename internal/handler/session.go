package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/set-night/screenwatch/internal/domain"
	"github.com/set-night/screenwatch/internal/service"
)

type areaDTO struct {
	Left   int     `json:"left"`
	Top    int     `json:"top"`
	Width  int     `json:"width" validate:"gt=0"`
	Height int     `json:"height" validate:"gt=0"`
	Scale  float64 `json:"scale" validate:"gte=0"`
}

func (a *areaDTO) toDomain() domain.Area {
	return domain.Area{
		Left:   a.Left,
		Top:    a.Top,
		Width:  a.Width,
		Height: a.Height,
		Scale:  a.Scale,
	}
}

type startSessionRequest struct {
	Prompt           string   `json:"prompt" validate:"required"`
	Area             *areaDTO `json:"area"`
	ConversationMode bool     `json:"conversationMode"`
	Display          int      `json:"display" validate:"gte=0"`
}

func (h *Handler) startSession(c *fiber.Ctx) error {
	var req startSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err)
	}

	start := service.StartRequest{
		Prompt:           req.Prompt,
		ConversationMode: req.ConversationMode,
		Display:          req.Display,
	}
	if req.Area != nil {
		area := req.Area.toDomain()
		start.Area = &area
	}

	session, err := h.monitor.Start(c.Context(), start)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

func (h *Handler) pauseSession(c *fiber.Ctx) error {
	session, err := h.monitor.Pause()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(session)
}

func (h *Handler) resumeSession(c *fiber.Ctx) error {
	session, err := h.monitor.Resume()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(session)
}

func (h *Handler) stopSession(c *fiber.Ctx) error {
	if err := h.monitor.Stop(); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"stopped": true})
}

type sessionSettingsPatch struct {
	IntervalSeconds  *int    `json:"intervalSeconds" validate:"omitempty,gt=0"`
	Model            *string `json:"model"`
	Prompt           *string `json:"prompt"`
	ConversationMode *bool   `json:"conversationMode"`
	Notifications    *bool   `json:"notifications"`
	AutoBackoff      *bool   `json:"autoBackoff"`
}

func (h *Handler) patchSessionSettings(c *fiber.Ctx) error {
	var req sessionSettingsPatch
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err)
	}

	err := h.monitor.UpdateSettings(service.SettingsPatch{
		IntervalSeconds:  req.IntervalSeconds,
		Model:            req.Model,
		Prompt:           req.Prompt,
		ConversationMode: req.ConversationMode,
		Notifications:    req.Notifications,
		AutoBackoff:      req.AutoBackoff,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(h.monitor.State().CurrentSession)
}

func (h *Handler) selectArea(c *fiber.Ctx) error {
	var req areaDTO
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err)
	}

	if err := h.monitor.UpdateArea(req.toDomain()); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"selected": true})
}

func (h *Handler) getState(c *fiber.Ctx) error {
	return c.JSON(h.monitor.State())
}
