package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bookstore-service/internal/entity"
)

const blogColumns = `id, title, slug, content, author, image, published, created_at, updated_at`

type BlogRepository struct {
	db *sql.DB
}

func NewBlogRepository(db *sql.DB) *BlogRepository {
	return &BlogRepository{db}
}

func scanBlog(row rowScanner) (*entity.Blog, error) {
	var blog entity.Blog
	err := row.Scan(&blog.ID, &blog.Title, &blog.Slug, &blog.Content, &blog.Author, &blog.Image,
		&blog.Published, &blog.CreatedAt, &blog.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &blog, nil
}

func (r *BlogRepository) GetBlogByID(ctx context.Context, id int) (*entity.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs WHERE id = ?`
	blog, err := scanBlog(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return blog, err
}

func (r *BlogRepository) GetBlogs(ctx context.Context, publishedOnly bool) ([]*entity.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs`
	if publishedOnly {
		query += ` WHERE published = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []*entity.Blog{}
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}

	return blogs, rows.Err()
}

func (r *BlogRepository) CreateBlog(ctx context.Context, blog *entity.Blog) (*entity.Blog, error) {
	now := time.Now().UTC()
	query := `INSERT INTO blogs (title, slug, content, author, image, published, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, blog.Title, blog.Slug, blog.Content, blog.Author, blog.Image, blog.Published, now, now)
	if err != nil {
		return nil, translateWriteErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	blog.ID = int(id)
	blog.CreatedAt = now
	blog.UpdatedAt = now
	return blog, nil
}

func (r *BlogRepository) UpdateBlog(ctx context.Context, blog *entity.Blog) (*entity.Blog, error) {
	blog.UpdatedAt = time.Now().UTC()
	query := `UPDATE blogs SET title = ?, slug = ?, content = ?, author = ?, image = ?, published = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, blog.Title, blog.Slug, blog.Content, blog.Author, blog.Image, blog.Published, blog.UpdatedAt, blog.ID)
	if err != nil {
		return nil, translateWriteErr(err)
	}
	return blog, nil
}

func (r *BlogRepository) DeleteBlog(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
