package api

import (
	"time"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Books   *BookHandler
	Blogs   *BlogHandler
	Users   *UserHandler
	Pricing *PricingHandler
	Uploads *UploadHandler
}

// Register mounts every route on e. admin guards the write endpoints.
func Register(e *echo.Echo, h Handlers, admin ...echo.MiddlewareFunc) {
	// Books
	e.GET("/books", h.Books.ListBooks)
	e.GET("/books/:id", h.Books.GetBook)
	e.POST("/books", h.Books.CreateBook, admin...)
	e.PUT("/books/:id", h.Books.UpdateBook, admin...)
	e.DELETE("/books/:id", h.Books.DeleteBook, admin...)
	e.GET("/books/warmup-cache", h.Books.PreWarmupCache, admin...)

	// Pricing
	e.POST("/books/pricing/reconcile", h.Pricing.Reconcile, admin...)
	e.POST("/books/pricing/sessions", h.Pricing.StartSession, admin...)
	e.GET("/books/pricing/sessions/:id", h.Pricing.GetSession, admin...)
	e.PATCH("/books/pricing/sessions/:id", h.Pricing.ApplyEdit, admin...)
	e.POST("/books/pricing/sessions/:id/clear-original", h.Pricing.ClearOriginal, admin...)
	e.POST("/books/pricing/sessions/:id/reset", h.Pricing.ResetSession, admin...)
	e.DELETE("/books/pricing/sessions/:id", h.Pricing.DeleteSession, admin...)

	// Blogs
	e.GET("/blogs", h.Blogs.ListBlogs)
	e.GET("/blogs/:id", h.Blogs.GetBlog)
	e.POST("/blogs", h.Blogs.CreateBlog, admin...)
	e.PUT("/blogs/:id", h.Blogs.UpdateBlog, admin...)
	e.DELETE("/blogs/:id", h.Blogs.DeleteBlog, admin...)

	// Users
	e.POST("/login", h.Users.Login)
	e.POST("/logout", h.Users.Logout, admin...)
	e.GET("/users/validate", h.Users.ValidateSession)
	e.POST("/users", h.Users.CreateUser, admin...)
	e.GET("/users/:id", h.Users.GetUserByID, admin...)

	// Uploads
	e.POST("/uploads", h.Uploads.Upload, admin...)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "bookstore-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})
}
