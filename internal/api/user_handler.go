package api

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"bookstore-service/internal/entity"
	"bookstore-service/internal/service"
)

type UserService interface {
	GetUserByID(ctx context.Context, id int) (*entity.User, error)
	CreateUser(ctx context.Context, user *entity.User, password string) (*entity.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (*service.JwtCustomClaims, error)
	Logout(ctx context.Context, email string) error
}

type UserHandler struct {
	userService UserService
}

// NewUserHandler creates a new instance of UserHandler
func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUserByID retrieves a user by ID --> /users/:id
func (h *UserHandler) GetUserByID(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}
	user, err := h.userService.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, user)
}

// CreateUser creates a new admin user --> /users
func (h *UserHandler) CreateUser(c echo.Context) error {
	req := struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	user := &entity.User{Username: req.Username, Email: req.Email, Role: req.Role}
	createdUser, err := h.userService.CreateUser(c.Request().Context(), user, req.Password)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(201, createdUser)
}

// Login logs in a user --> /login
func (h *UserHandler) Login(c echo.Context) error {
	login := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}
	if err := c.Bind(&login); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	token, err := h.userService.Login(c.Request().Context(), login.Email, login.Password)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(200, map[string]string{"token": token})
}

// ValidateSession validates a session token --> /users/validate
func (h *UserHandler) ValidateSession(c echo.Context) error {
	token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if token == "" {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	claims, err := h.userService.ValidateToken(c.Request().Context(), token)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(200, map[string]string{
		"message": "Session is valid",
		"email":   claims.Email,
		"role":    claims.Role,
	})
}

// Logout revokes the caller's session --> /logout
func (h *UserHandler) Logout(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	if err := h.userService.Logout(c.Request().Context(), claims.Email); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(204)
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(header)
}

func claimsFrom(c echo.Context) (*service.JwtCustomClaims, bool) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, false
	}
	claims, ok := token.Claims.(*service.JwtCustomClaims)
	return claims, ok
}
