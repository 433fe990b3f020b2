package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"bookstore-service/internal/entity"
)

const bookColumns = `id, title, author, description, category, isbn, original_price, final_price, discount_percent, stock, cover_image, created_at, updated_at`

type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*entity.Book, error) {
	var book entity.Book
	err := row.Scan(&book.ID, &book.Title, &book.Author, &book.Description, &book.Category, &book.ISBN,
		&book.OriginalPrice, &book.FinalPrice, &book.DiscountPercent, &book.Stock, &book.CoverImage,
		&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *BookRepository) GetBookByID(ctx context.Context, id int) (*entity.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ?`
	book, err := scanBook(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return book, err
}

func (r *BookRepository) GetBooks(ctx context.Context, filter entity.BookFilter) ([]*entity.Book, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}

	query := `SELECT ` + bookColumns + ` FROM books`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []*entity.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	return books, rows.Err()
}

func (r *BookRepository) CreateBook(ctx context.Context, book *entity.Book) (*entity.Book, error) {
	now := time.Now().UTC()
	query := `INSERT INTO books (title, author, description, category, isbn, original_price, final_price, discount_percent, stock, cover_image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, book.Title, book.Author, book.Description, book.Category, book.ISBN,
		book.OriginalPrice, book.FinalPrice, book.DiscountPercent, book.Stock, book.CoverImage, now, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	book.ID = int(id)
	book.CreatedAt = now
	book.UpdatedAt = now
	return book, nil
}

func (r *BookRepository) UpdateBook(ctx context.Context, book *entity.Book) (*entity.Book, error) {
	book.UpdatedAt = time.Now().UTC()
	query := `UPDATE books SET title = ?, author = ?, description = ?, category = ?, isbn = ?, original_price = ?, final_price = ?, discount_percent = ?, stock = ?, cover_image = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, book.Title, book.Author, book.Description, book.Category, book.ISBN,
		book.OriginalPrice, book.FinalPrice, book.DiscountPercent, book.Stock, book.CoverImage, book.UpdatedAt, book.ID)
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (r *BookRepository) DeleteBook(ctx context.Context, id int) error {
	query := `DELETE FROM books WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, id)
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
