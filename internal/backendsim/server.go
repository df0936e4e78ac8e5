// Package backendsim is a small in-memory rendition of the upstream admin
// backend. It speaks the same wire contract the gateway proxies: envelope
// responses, millisecond token lifetimes, rotating opaque refresh tokens.
// It backs local development and end-to-end tests; it is not a product.
package backendsim

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultPageSize   = 20
)

// Options tunes the simulator. Zero values fall back to sane defaults; a
// missing secret gets a random one, which is fine for a single process.
type Options struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Server struct {
	echo       *echo.Echo
	store      *store
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(opts Options) (*Server, error) {
	if opts.Secret == "" {
		opts.Secret = uuid.NewString()
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = defaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = defaultRefreshTTL
	}

	s := &Server{
		store:      newStore(),
		secret:     opts.Secret,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
	}
	if err := s.seed(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomiddleware.Recover())

	v1 := e.Group("/api/v1")
	v1.POST("/auth/login/local", s.login)
	v1.POST("/auth/refresh-token", s.refreshToken)
	v1.POST("/auth/logout", s.logout)

	protected := v1.Group("", s.requireBearer)
	protected.GET("/users", s.listUsers)
	protected.GET("/users/me", s.currentUser)

	s.echo = e
	return s, nil
}

// Handler exposes the simulator as an http.Handler for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving on addr.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) seed() error {
	users := []struct {
		user     domain.UserInfo
		password string
	}{
		{
			user: domain.UserInfo{
				ID: 1, Email: "admin@example.com", FirstName: "Ada", LastName: "Admin",
				IsActive: true,
				Roles:    []string{"admin"},
				Permissions: []string{
					"users:read", "users:write", "roles:read", "roles:write",
					"products:read", "products:write", "categories:read", "categories:write",
				},
			},
			password: "admin123",
		},
		{
			user: domain.UserInfo{
				ID: 2, Email: "viewer@example.com", FirstName: "Vic", LastName: "Viewer",
				IsActive:    true,
				Roles:       []string{"viewer"},
				Permissions: []string{"users:read", "products:read", "categories:read"},
			},
			password: "viewer123",
		},
	}

	for _, u := range users {
		if err := s.store.addAccount(u.user, u.password); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) login(c echo.Context) error {
	var creds domain.Credentials
	if err := c.Bind(&creds); err != nil {
		return s.reject(c, http.StatusBadRequest, 4000, "malformed request body")
	}

	user, ok := s.store.authenticate(creds.Email, creds.Password)
	if !ok {
		return s.reject(c, http.StatusUnauthorized, 4011, "invalid email or password")
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return s.reject(c, http.StatusInternalServerError, 5000, "token issuance failed")
	}

	return s.resolve(c, domain.LoginData{TokenPair: *pair, UserInfo: user})
}

func (s *Server) refreshToken(c echo.Context) error {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&body); err != nil || body.RefreshToken == "" {
		return s.reject(c, http.StatusBadRequest, 4000, "refreshToken is required")
	}

	userID, ok := s.store.consumeRefreshToken(body.RefreshToken)
	if !ok {
		return s.reject(c, http.StatusUnauthorized, 4012, "refresh token expired or revoked")
	}

	user, ok := s.store.userByID(userID)
	if !ok {
		return s.reject(c, http.StatusUnauthorized, 4012, "refresh token expired or revoked")
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return s.reject(c, http.StatusInternalServerError, 5000, "token issuance failed")
	}

	// Refresh responses carry tokens only; the client keeps its snapshot.
	return s.resolve(c, domain.LoginData{TokenPair: *pair})
}

func (s *Server) logout(c echo.Context) error {
	if token := bearerToken(c); token != "" {
		s.store.revokeRefreshToken(token)
	}
	return s.resolve(c, nil)
}

func (s *Server) listUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if size < 1 {
		size = defaultPageSize
	}

	users := s.store.users()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	total := len(users)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	env, err := domain.NewEnvelope(users[start:end], http.StatusOK, "OK", uuid.NewString(), c.Request().URL.Path)
	if err != nil {
		return s.reject(c, http.StatusInternalServerError, 5000, "encode response failed")
	}
	env.Meta = &domain.Meta{
		Page:       page,
		PageSize:   size,
		TotalCount: total,
		TotalPage:  (total + size - 1) / size,
	}
	return c.JSON(http.StatusOK, env)
}

func (s *Server) currentUser(c echo.Context) error {
	id, _ := c.Get("userID").(int64)
	user, ok := s.store.userByID(id)
	if !ok {
		return s.reject(c, http.StatusNotFound, 4040, "user not found")
	}
	return s.resolve(c, user)
}

// requireBearer validates the access JWT on protected routes.
func (s *Server) requireBearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return s.reject(c, http.StatusUnauthorized, 4010, "missing authorization header")
		}

		claims := jwt.MapClaims{}
		tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(s.secret), nil
		})
		if err != nil || !tkn.Valid {
			return s.reject(c, http.StatusUnauthorized, 4010, "invalid or expired token")
		}

		if sub, ok := claims["sub"].(float64); ok {
			c.Set("userID", int64(sub))
		}
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func (s *Server) resolve(c echo.Context, data any) error {
	env, err := domain.NewEnvelope(data, http.StatusOK, "OK", uuid.NewString(), c.Request().URL.Path)
	if err != nil {
		return s.reject(c, http.StatusInternalServerError, 5000, "encode response failed")
	}
	return c.JSON(http.StatusOK, env)
}

func (s *Server) reject(c echo.Context, httpStatus, code int, message string) error {
	env := domain.NewErrorEnvelope(code, message, c.Request().URL.Path)
	env.TraceID = uuid.NewString()
	return c.JSON(httpStatus, env)
}
