package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"bookstore-service/internal/entity"
	"bookstore-service/internal/repository"
)

type BlogService struct {
	blogRepo *repository.BlogRepository
}

func NewBlogService(blogRepo *repository.BlogRepository) *BlogService {
	return &BlogService{blogRepo: blogRepo}
}

func (s *BlogService) GetBlog(ctx context.Context, id int) (*entity.Blog, error) {
	blog, err := s.blogRepo.GetBlogByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBlogNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting blog by ID %d", id)
		return nil, err
	}
	return blog, nil
}

func (s *BlogService) ListBlogs(ctx context.Context, publishedOnly bool) ([]*entity.Blog, error) {
	blogs, err := s.blogRepo.GetBlogs(ctx, publishedOnly)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing blogs")
		return nil, err
	}
	return blogs, nil
}

func (s *BlogService) CreateBlog(ctx context.Context, blog *entity.Blog) (*entity.Blog, error) {
	if err := prepareBlog(blog); err != nil {
		return nil, err
	}

	created, err := s.blogRepo.CreateBlog(ctx, blog)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%w: blog slug %q", ErrAlreadyExists, blog.Slug)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Error creating blog")
		return nil, err
	}
	return created, nil
}

func (s *BlogService) UpdateBlog(ctx context.Context, id int, blog *entity.Blog) (*entity.Blog, error) {
	existing, err := s.GetBlog(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := prepareBlog(blog); err != nil {
		return nil, err
	}
	blog.ID = id
	blog.CreatedAt = existing.CreatedAt

	updated, err := s.blogRepo.UpdateBlog(ctx, blog)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%w: blog slug %q", ErrAlreadyExists, blog.Slug)
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating blog %d", id)
		return nil, err
	}
	return updated, nil
}

func (s *BlogService) DeleteBlog(ctx context.Context, id int) error {
	err := s.blogRepo.DeleteBlog(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBlogNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting blog %d", id)
	}
	return err
}

func prepareBlog(blog *entity.Blog) error {
	blog.Title = strings.TrimSpace(blog.Title)
	if blog.Title == "" || strings.TrimSpace(blog.Content) == "" {
		return fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}
	if blog.Slug == "" {
		blog.Slug = Slugify(blog.Title)
	} else {
		blog.Slug = Slugify(blog.Slug)
	}
	if blog.Slug == "" {
		return fmt.Errorf("%w: slug needs at least one letter or digit", ErrInvalidInput)
	}
	return nil
}

// Slugify lowercases s and joins its letter and digit runs with single dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
