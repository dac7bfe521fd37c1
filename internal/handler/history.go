package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/set-night/screenwatch/internal/config"
)

func (h *Handler) listResponses(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", config.ResponsesPerPage)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 || limit > config.MaxStoredResponses {
		limit = config.ResponsesPerPage
	}
	if offset < 0 {
		offset = 0
	}

	responses, err := h.responses.List(c.Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	total, err := h.responses.Count(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"responses": responses,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *Handler) listSessions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", config.SessionsPerPage)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = config.SessionsPerPage
	}
	if offset < 0 {
		offset = 0
	}

	sessions, err := h.sessions.List(c.Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"sessions": sessions,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) listLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", config.MaxStoredDebugLogs)
	if limit <= 0 || limit > config.MaxStoredDebugLogs {
		limit = config.MaxStoredDebugLogs
	}

	entries, err := h.logs.Recent(c.Context(), limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"logs": entries})
}
