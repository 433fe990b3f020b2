package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var retryDelay = 1 * time.Second

const booksTable = `
	CREATE TABLE IF NOT EXISTS books (
		id INT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		author VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		category VARCHAR(100) NOT NULL DEFAULT '',
		isbn VARCHAR(20) NOT NULL DEFAULT '',
		original_price DOUBLE NOT NULL,
		final_price DOUBLE NOT NULL,
		discount_percent DOUBLE NOT NULL,
		stock INT NOT NULL,
		cover_image VARCHAR(512) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_books_category (category)
	);
`

const blogsTable = `
	CREATE TABLE IF NOT EXISTS blogs (
		id INT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		content TEXT NOT NULL,
		author VARCHAR(255) NOT NULL,
		image VARCHAR(512) NOT NULL DEFAULT '',
		published BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
`

const usersTable = `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(50) NOT NULL,
		email VARCHAR(100) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'admin'
	);
`

// AutoMigrate creates the books, blogs and users tables if they do not exist.
func AutoMigrate(ctx context.Context, retries int, db *sql.DB) error {
	tables := []struct{ name, query string }{
		{"books", booksTable},
		{"blogs", blogsTable},
		{"users", usersTable},
	}
	for _, table := range tables {
		if err := execWithRetry(ctx, retries, db, table.query); err != nil {
			return fmt.Errorf("migrate %s table: %w", table.name, err)
		}
	}
	return nil
}

func execWithRetry(ctx context.Context, retries int, db *sql.DB, query string) error {
	_, err := db.ExecContext(ctx, query)
	for i := 0; err != nil && i < retries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
		_, err = db.ExecContext(ctx, query)
	}
	return err
}
