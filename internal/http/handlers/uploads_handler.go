package handlers

import (
	"path/filepath"
	"strings"

	applog "ticketlogger/internal/log"

	"github.com/gofiber/fiber/v2"
)

// UploadsHandler serves stored category images.
type UploadsHandler struct {
	Dir string
}

// GET /uploads/*
func (h *UploadsHandler) Serve(c *fiber.Ctx) error {
	path := c.Params("*")
	rawLower := strings.ToLower(path)
	// Block encoded traversal attempts as well as raw .. or null bytes
	if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
		applog.Security(c, "uploads.traversal.block", map[string]any{"path": path})
		return fiber.ErrNotFound
	}
	clean := filepath.Clean(path)
	if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) || strings.HasPrefix(path, "/") {
		applog.Security(c, "uploads.traversal.block", map[string]any{"path": path})
		return fiber.ErrNotFound
	}
	return c.SendFile(filepath.Join(h.Dir, clean), true)
}
