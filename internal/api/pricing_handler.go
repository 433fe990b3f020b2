package api

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/labstack/echo/v4"

	"bookstore-service/internal/entity"
	"bookstore-service/internal/pricing"
)

type PricingService interface {
	Reconcile(state pricing.State, field pricing.Field, raw string) pricing.State
	StartSession(ctx context.Context, bookID int) (*entity.PricingSession, error)
	GetSession(ctx context.Context, id string) (*entity.PricingSession, error)
	ApplyEdit(ctx context.Context, id string, field pricing.Field, raw string) (*entity.PricingSession, error)
	ClearOriginal(ctx context.Context, id string) (*entity.PricingSession, error)
	ResetSession(ctx context.Context, id string) (*entity.PricingSession, error)
	DeleteSession(ctx context.Context, id string) error
}

// rawValue is the text of a form input. Clients may send it as a JSON string
// or a JSON number.
type rawValue string

func (v *rawValue) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = rawValue(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	*v = rawValue(data)
	return nil
}

type editRequest struct {
	Field pricing.Field `json:"field"`
	Value rawValue      `json:"value"`
}

type PricingHandler struct {
	pricingService PricingService
}

func NewPricingHandler(pricingService PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

// Reconcile applies one edit to a client-held state --> /books/pricing/reconcile
func (h *PricingHandler) Reconcile(c echo.Context) error {
	req := struct {
		State pricing.State `json:"state"`
		editRequest
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	if req.Field == pricing.FieldNone {
		return c.JSON(400, map[string]string{"error": "field is required"})
	}

	return c.JSON(200, h.pricingService.Reconcile(req.State, req.Field, string(req.Value)))
}

// StartSession --> POST /books/pricing/sessions
func (h *PricingHandler) StartSession(c echo.Context) error {
	req := struct {
		BookID int `json:"book_id"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	if req.BookID < 0 {
		return c.JSON(400, map[string]string{"error": "Invalid book ID"})
	}

	session, err := h.pricingService.StartSession(c.Request().Context(), req.BookID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(201, session)
}

// GetSession --> GET /books/pricing/sessions/:id
func (h *PricingHandler) GetSession(c echo.Context) error {
	session, err := h.pricingService.GetSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, session)
}

// ApplyEdit --> PATCH /books/pricing/sessions/:id
func (h *PricingHandler) ApplyEdit(c echo.Context) error {
	req := editRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	session, err := h.pricingService.ApplyEdit(c.Request().Context(), c.Param("id"), req.Field, string(req.Value))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, session)
}

// ClearOriginal --> POST /books/pricing/sessions/:id/clear-original
func (h *PricingHandler) ClearOriginal(c echo.Context) error {
	session, err := h.pricingService.ClearOriginal(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, session)
}

// ResetSession --> POST /books/pricing/sessions/:id/reset
func (h *PricingHandler) ResetSession(c echo.Context) error {
	session, err := h.pricingService.ResetSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, session)
}

// DeleteSession --> DELETE /books/pricing/sessions/:id
func (h *PricingHandler) DeleteSession(c echo.Context) error {
	if err := h.pricingService.DeleteSession(c.Request().Context(), c.Param("id")); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(204)
}
