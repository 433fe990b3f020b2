package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

var logger = &log.Logger

var (
	ErrBookNotFound       = errors.New("book not found")
	ErrBlogNotFound       = errors.New("blog not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("pricing session not found")
	ErrDuplicateRequest   = errors.New("idempotent key already exists")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedImage   = errors.New("unsupported image type")
	ErrTooLarge           = errors.New("upload too large")
)

// EventPublisher is satisfied by *kafka.Writer.
type EventPublisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}
