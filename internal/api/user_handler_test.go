package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-service/internal/entity"
	"bookstore-service/internal/service"
)

func TestUserHandler_Login(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/login", `{"email":"admin@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"tkn"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/login", `{"email":"admin@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandler_ValidateSession(t *testing.T) {
	s := newTestServer(t)
	s.users.claims = &service.JwtCustomClaims{Email: "admin@example.com", Role: entity.RoleAdmin}

	rec := s.do(http.MethodGet, "/users/validate", "", echo.HeaderAuthorization, "Bearer tkn")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"admin@example.com"`)

	rec = s.do(http.MethodGet, "/users/validate", "", echo.HeaderAuthorization, "Bearer other")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/users/validate", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandler_CreateAndGet(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/users", `{"username":"ed","email":"ed@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hash")

	rec = s.do(http.MethodPost, "/users", `{"username":"ed","email":"ed@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(http.MethodGet, "/users/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer abc "))
	assert.Equal(t, "abc", bearerToken("abc"))
	assert.Equal(t, "", bearerToken(""))
}

func signToken(t *testing.T, secret, role string) string {
	t.Helper()
	claims := &service.JwtCustomClaims{
		Name:  "admin",
		Email: "admin@example.com",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAdminRoutes(t *testing.T) {
	users := &fakeUsers{}
	books := newFakeBooks()

	e := echo.New()
	auth := []echo.MiddlewareFunc{JWT("secret"), AdminOnly(users)}
	e.DELETE("/books/:id", NewBookHandler(books).DeleteBook, auth...)
	e.POST("/logout", NewUserHandler(users).Logout, auth...)
	s := &testServer{e: e, books: books, users: users}

	t.Run("missing token", func(t *testing.T) {
		rec := s.do(http.MethodDelete, "/books/1", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		rec := s.do(http.MethodDelete, "/books/1", "", echo.HeaderAuthorization, "Bearer "+signToken(t, "other", entity.RoleAdmin))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked session", func(t *testing.T) {
		users.token = ""
		rec := s.do(http.MethodDelete, "/books/1", "", echo.HeaderAuthorization, "Bearer "+signToken(t, "secret", entity.RoleAdmin))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non admin role", func(t *testing.T) {
		users.token = signToken(t, "secret", "reader")
		users.claims = &service.JwtCustomClaims{Email: "admin@example.com", Role: "reader"}
		rec := s.do(http.MethodDelete, "/books/1", "", echo.HeaderAuthorization, "Bearer "+users.token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin", func(t *testing.T) {
		users.token = signToken(t, "secret", entity.RoleAdmin)
		users.claims = &service.JwtCustomClaims{Email: "admin@example.com", Role: entity.RoleAdmin}

		rec := s.do(http.MethodDelete, "/books/1", "", echo.HeaderAuthorization, "Bearer "+users.token)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(http.MethodPost, "/logout", "", echo.HeaderAuthorization, "Bearer "+users.token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []string{"admin@example.com"}, users.revoked)
	})
}
