// Package api holds the echo handlers of the bookstore admin service.
package api

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"bookstore-service/internal/pricing"
	"bookstore-service/internal/service"
)

// errorStatus maps service errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrBookNotFound),
		errors.Is(err, service.ErrBlogNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		return 404
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnsupportedImage),
		errors.Is(err, pricing.ErrUnknownField):
		return 400
	case errors.Is(err, service.ErrInvalidCredentials):
		return 401
	case errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrAlreadyExists):
		return 409
	case errors.Is(err, service.ErrTooLarge):
		return 413
	}
	return 500
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
}

func paramID(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
