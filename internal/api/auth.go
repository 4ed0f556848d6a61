// internal/api/auth.go
package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/scil-audit/scil-go/internal/access"
	"github.com/scil-audit/scil-go/internal/errors"
)

// Session is the server-side state bound to a bearer token.
type Session struct {
	Username     string   `json:"username"`
	FullName     string   `json:"fullName"`
	Entitlements []string `json:"entitlements"`
}

// Filter resolves the session's entitlement tokens against the current
// catalog. Resolved per request so a registry change applies immediately.
func (s *Session) Filter(c *Controller) *access.Filter {
	return access.NewFilter(s.Entitlements, c.Catalog)
}

// initAuthRoutes registers login and logout endpoints.
func (c *Controller) initAuthRoutes() {
	c.Group.POST("/auth/login", c.Login)
	c.Group.POST("/auth/logout", c.Logout, c.RequireSession)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string  `json:"token"`
	Session Session `json:"session"`
}

// Login verifies credentials and issues a session token.
func (c *Controller) Login(ctx echo.Context) error {
	var req loginRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid login request", http.StatusBadRequest)
	}

	user, err := c.DS.GetUser(req.Username)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to look up user", http.StatusInternalServerError)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.apiLogger.Warn("failed login attempt", "username", req.Username, "ip", ctx.RealIP())
		authErr := errors.Newf("invalid credentials for %q", req.Username).
			Component("api").
			Category(errors.CategoryAuth).
			Build()
		return c.HandleError(ctx, authErr, "Invalid credentials", http.StatusUnauthorized)
	}

	session := Session{
		Username:     user.Username,
		FullName:     user.FullName,
		Entitlements: user.EntitlementTokens(),
	}
	token := uuid.NewString()
	c.sessions.SetDefault(token, &session)

	c.apiLogger.Info("user logged in", "username", user.Username, "ip", ctx.RealIP())
	return ctx.JSON(http.StatusOK, loginResponse{Token: token, Session: session})
}

// Logout discards the caller's session token.
func (c *Controller) Logout(ctx echo.Context) error {
	if token := bearerToken(ctx); token != "" {
		c.sessions.Delete(token)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "logged out"})
}

// RequireSession guards a route behind a valid bearer token and stashes
// the session in the request context.
func (c *Controller) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := bearerToken(ctx)
		if token == "" {
			authErr := errors.Newf("missing bearer token").
				Component("api").
				Category(errors.CategoryAuth).
				Build()
			return c.HandleError(ctx, authErr, "Missing session token", http.StatusUnauthorized)
		}
		v, ok := c.sessions.Get(token)
		if !ok {
			authErr := errors.Newf("session expired or unknown").
				Component("api").
				Category(errors.CategoryAuth).
				Build()
			return c.HandleError(ctx, authErr, "Session expired or unknown", http.StatusUnauthorized)
		}
		ctx.Set("session", v.(*Session))
		return next(ctx)
	}
}

// currentSession returns the session stashed by RequireSession, nil on
// unguarded routes.
func currentSession(ctx echo.Context) *Session {
	s, _ := ctx.Get("session").(*Session)
	return s
}

func bearerToken(ctx echo.Context) string {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}
