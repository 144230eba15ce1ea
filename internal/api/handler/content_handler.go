package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ContentHandler serves role-gated demo content. It exists so the issued
// access tokens have something to be presented against within this service.
type ContentHandler struct{}

func NewContentHandler() *ContentHandler {
	return &ContentHandler{}
}

// Public handles GET /api/test/all — no authentication required.
func (h *ContentHandler) Public(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "public content"})
}

// User handles GET /api/test/user — any authenticated caller.
func (h *ContentHandler) User(c echo.Context) error {
	username, roles, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":  "user content",
		"username": username,
		"roles":    roles,
	})
}

// Moderator handles GET /api/test/mod — moderator or admin only.
func (h *ContentHandler) Moderator(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "moderator content"})
}

// Admin handles GET /api/test/admin — admin only.
func (h *ContentHandler) Admin(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "admin content"})
}
