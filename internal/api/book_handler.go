package api

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"bookstore-service/internal/entity"
)

const maxPageSize = 100

type BookService interface {
	GetBook(ctx context.Context, id int) (*entity.Book, error)
	ListBooks(ctx context.Context, filter entity.BookFilter) ([]*entity.Book, error)
	CreateBook(ctx context.Context, book *entity.Book, idempotentKey string) (*entity.Book, error)
	UpdateBook(ctx context.Context, id int, book *entity.Book) (*entity.Book, error)
	DeleteBook(ctx context.Context, id int) error
	PreWarmCacheAsync(ctx context.Context) (int, error)
}

type BookHandler struct {
	bookService BookService
}

// NewBookHandler creates a new instance of BookHandler
func NewBookHandler(bookService BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// ListBooks lists books --> /books?category=&limit=&offset=
func (h *BookHandler) ListBooks(c echo.Context) error {
	filter := entity.BookFilter{Category: c.QueryParam("category")}

	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return c.JSON(400, map[string]string{"error": "Invalid limit"})
		}
		filter.Limit = min(limit, maxPageSize)
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return c.JSON(400, map[string]string{"error": "Invalid offset"})
		}
		filter.Offset = offset
	}

	books, err := h.bookService.ListBooks(c.Request().Context(), filter)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, books)
}

// GetBook gets a book --> /books/:id
func (h *BookHandler) GetBook(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(400, map[string]string{"error": "Invalid book ID"})
	}

	book, err := h.bookService.GetBook(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, book)
}

// CreateBook creates a book --> /books
func (h *BookHandler) CreateBook(c echo.Context) error {
	book := entity.Book{}
	if err := c.Bind(&book); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	idempotentKey := c.Request().Header.Get("Idempotent-Key")
	created, err := h.bookService.CreateBook(c.Request().Context(), &book, idempotentKey)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(201, created)
}

// UpdateBook replaces a book --> /books/:id
func (h *BookHandler) UpdateBook(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(400, map[string]string{"error": "Invalid book ID"})
	}

	book := entity.Book{}
	if err := c.Bind(&book); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	updated, err := h.bookService.UpdateBook(c.Request().Context(), id, &book)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, updated)
}

// DeleteBook deletes a book --> /books/:id
func (h *BookHandler) DeleteBook(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(400, map[string]string{"error": "Invalid book ID"})
	}

	if err := h.bookService.DeleteBook(c.Request().Context(), id); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(204)
}

// PreWarmupCache pre-warms the cache with book data --> /books/warmup-cache
func (h *BookHandler) PreWarmupCache(c echo.Context) error {
	n, err := h.bookService.PreWarmCacheAsync(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(200, map[string]interface{}{"message": "Cache pre-warming started", "books": n})
}
