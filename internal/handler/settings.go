package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/set-night/screenwatch/internal/domain"
)

func (h *Handler) getSettings(c *fiber.Ctx) error {
	settings, err := h.settings.Get(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(settings)
}

type putSettingsRequest struct {
	Model               string `json:"model" validate:"required"`
	IntervalSeconds     int    `json:"intervalSeconds" validate:"gt=0"`
	Prompt              string `json:"prompt"`
	EnableNotifications bool   `json:"enableNotifications"`
	AutoBackoff         bool   `json:"autoBackoff"`
	APIKey              string `json:"apiKey"`
	DebugMode           bool   `json:"debugMode"`
}

func (h *Handler) putSettings(c *fiber.Ctx) error {
	var req putSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err)
	}

	settings := domain.Settings{
		Model:               req.Model,
		IntervalSeconds:     req.IntervalSeconds,
		Prompt:              req.Prompt,
		EnableNotifications: req.EnableNotifications,
		AutoBackoff:         req.AutoBackoff,
		APIKey:              req.APIKey,
		DebugMode:           req.DebugMode,
	}
	if err := h.settings.Put(c.Context(), &settings); err != nil {
		return fail(c, err)
	}
	return c.JSON(settings)
}

type testModelRequest struct {
	Model  string `json:"model"`
	APIKey string `json:"apiKey"`
}

// testModel performs a minimal round trip against the inference provider so
// a user can verify a model and credential before starting a session.
func (h *Handler) testModel(c *fiber.Ctx) error {
	var req testModelRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	model := req.Model
	apiKey := req.APIKey
	if model == "" || apiKey == "" {
		settings, err := h.settings.Get(c.Context())
		if err != nil {
			return fail(c, err)
		}
		if model == "" {
			model = settings.Model
		}
		if apiKey == "" {
			apiKey = settings.APIKey
		}
	}

	if err := h.client.Test(c.Context(), model, apiKey); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"ok":    false,
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"ok": true, "model": model})
}
