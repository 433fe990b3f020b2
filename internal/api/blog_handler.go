package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"bookstore-service/internal/entity"
)

type BlogService interface {
	GetBlog(ctx context.Context, id int) (*entity.Blog, error)
	ListBlogs(ctx context.Context, publishedOnly bool) ([]*entity.Blog, error)
	CreateBlog(ctx context.Context, blog *entity.Blog) (*entity.Blog, error)
	UpdateBlog(ctx context.Context, id int, blog *entity.Blog) (*entity.Blog, error)
	DeleteBlog(ctx context.Context, id int) error
}

type BlogHandler struct {
	blogService BlogService
}

func NewBlogHandler(blogService BlogService) *BlogHandler {
	return &BlogHandler{blogService: blogService}
}

// ListBlogs --> /blogs, add ?all=true for drafts as well
func (h *BlogHandler) ListBlogs(c echo.Context) error {
	blogs, err := h.blogService.ListBlogs(c.Request().Context(), c.QueryParam("all") != "true")
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, blogs)
}

// GetBlog --> /blogs/:id
func (h *BlogHandler) GetBlog(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(400, map[string]string{"error": "Invalid blog ID"})
	}

	blog, err := h.blogService.GetBlog(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, blog)
}

// CreateBlog --> /blogs
func (h *BlogHandler) CreateBlog(c echo.Context) error {
	blog := entity.Blog{}
	if err := c.Bind(&blog); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	created, err := h.blogService.CreateBlog(c.Request().Context(), &blog)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(201, created)
}

// UpdateBlog --> /blogs/:id
func (h *BlogHandler) UpdateBlog(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(400, map[string]string{"error": "Invalid blog ID"})
	}

	blog := entity.Blog{}
	if err := c.Bind(&blog); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	updated, err := h.blogService.UpdateBlog(c.Request().Context(), id, &blog)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, updated)
}

// DeleteBlog --> /blogs/:id
func (h *BlogHandler) DeleteBlog(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(400, map[string]string{"error": "Invalid blog ID"})
	}

	if err := h.blogService.DeleteBlog(c.Request().Context(), id); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(204)
}
