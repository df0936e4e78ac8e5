package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/channy-sao/admin-gateway/internal/auth"
	"github.com/channy-sao/admin-gateway/internal/core/domain"
	"github.com/channy-sao/admin-gateway/internal/core/ports"
)

// AuthHandler exposes the gateway's session endpoints. It is the only
// handler that mutates credential cookies, and it does so exclusively
// through the CookieStore.
type AuthHandler struct {
	authService ports.AuthService
	cookies     *auth.CookieStore
}

func NewAuthHandler(authService ports.AuthService, cookies *auth.CookieStore) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

type loginRequest struct {
	Email      string `json:"email"    validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// Login authenticates against the remote API and installs credential cookies.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  domain.Envelope
// @Failure      400   {object}  domain.Envelope
// @Failure      401   {object}  domain.Envelope
// @Failure      429   {object}  domain.Envelope
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	creds := domain.Credentials{Email: req.Email, Password: req.Password, RememberMe: req.RememberMe}
	reply, err := h.authService.Login(c.Request().Context(), creds, c.RealIP())
	if err != nil {
		return err
	}

	// A backend rejection still returns its envelope: "wrong password" is a
	// normal outcome the login form renders, not a gateway fault.
	if reply.Granted() {
		h.cookies.SetAll(c, reply.Tokens.TokenPair, reply.Tokens.UserInfo)
	}
	return c.JSON(reply.StatusCode, reply.Envelope)
}

// Refresh rotates the credential cookies using the refresh token cookie.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Envelope
// @Failure      401  {object}  domain.Envelope
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	refreshToken := h.cookies.RefreshToken(c)
	if refreshToken == "" {
		return domain.ErrNoRefreshToken
	}

	reply, err := h.authService.Refresh(c.Request().Context(), refreshToken)
	if err != nil {
		return err
	}

	if !reply.Granted() {
		// The backend refused the token; the original envelope explains why.
		return c.JSON(http.StatusUnauthorized, reply.Envelope)
	}

	h.cookies.SetAll(c, reply.Tokens.TokenPair, reply.Tokens.UserInfo)
	return c.JSON(http.StatusOK, reply.Envelope)
}

// Logout notifies the backend best-effort and always clears credentials.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Envelope
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	_ = h.authService.Logout(c.Request().Context(), h.cookies.RefreshToken(c))
	h.cookies.ClearAll(c)

	env, _ := domain.NewEnvelope(nil, http.StatusOK, "Logout successfully", "", c.Request().URL.Path)
	return c.JSON(http.StatusOK, env)
}
