package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-service/internal/entity"
)

func TestUserRepository_GetUserByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, email, password, role FROM users WHERE email = ?`)).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password", "role"}).
			AddRow(1, "admin", "admin@example.com", "$2a$hash", "admin"))

	user, err := repo.GetUserByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, "$2a$hash", user.Password)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetUserByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_CreateAndCount(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("admin", "admin@example.com", "hash", entity.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	user, err := repo.CreateUser(context.Background(), &entity.User{Username: "admin", Email: "admin@example.com", Password: "hash", Role: entity.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 9, user.ID)

	n, err := repo.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser_DuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'admin@example.com' for key 'email'"})

	_, err := repo.CreateUser(context.Background(), &entity.User{Email: "admin@example.com", Password: "hash"})
	assert.ErrorIs(t, err, ErrDuplicate)
}
