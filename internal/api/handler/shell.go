package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/channy-sao/admin-gateway/internal/auth"
)

const shellPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Admin</title></head>
<body><div id="root"></div><script src="/assets/app.js"></script></body>
</html>`

// ShellHandler serves the application shell for page routes that pass the
// route guard. The bootstrap user snapshot, when present, lets the shell
// render the chrome before session hydration completes.
type ShellHandler struct {
	cookies *auth.CookieStore
}

func NewShellHandler(cookies *auth.CookieStore) *ShellHandler {
	return &ShellHandler{cookies: cookies}
}

func (h *ShellHandler) Page(c echo.Context) error {
	if user := h.cookies.BootstrapUser(c); user != nil {
		c.Response().Header().Set("X-Bootstrap-User", user.Email)
	}
	return c.HTML(http.StatusOK, shellPage)
}
