package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"bookstore-service/internal/entity"
	"bookstore-service/internal/metrics"
	"bookstore-service/internal/pricing"
	"bookstore-service/internal/repository"
)

const (
	idempotentKeyPrefix = "idempotent-key:"
	idempotentKeyTTL    = 24 * time.Hour
	warmupWorkers       = 8
)

type BookService struct {
	bookRepo  *repository.BookRepository
	rdb       *redis.Client
	publisher EventPublisher
	cacheTTL  time.Duration
	warmup    sync.WaitGroup
}

// NewBookService creates a new instance of BookService. publisher may be nil,
// in which case no book events are emitted.
func NewBookService(bookRepo *repository.BookRepository, rdb *redis.Client, publisher EventPublisher, cacheTTL time.Duration) *BookService {
	return &BookService{
		bookRepo:  bookRepo,
		rdb:       rdb,
		publisher: publisher,
		cacheTTL:  cacheTTL,
	}
}

func bookCacheKey(id int) string {
	return fmt.Sprintf("book:%d", id)
}

// GetBook reads through the cache. A broken cache is logged and bypassed.
func (s *BookService) GetBook(ctx context.Context, id int) (*entity.Book, error) {
	key := bookCacheKey(id)
	cached, err := s.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var book entity.Book
		jsonErr := json.Unmarshal([]byte(cached), &book)
		if jsonErr == nil {
			metrics.RecordCacheLookup(true)
			return &book, nil
		}
		logger.Error().Err(jsonErr).Msgf("Error unmarshalling cached book %d", id)
	case errors.Is(err, redis.Nil):
		logger.Debug().Msgf("Book %d not found in cache", id)
	default:
		logger.Error().Err(err).Msgf("Error getting book %d from cache", id)
	}
	metrics.RecordCacheLookup(false)

	book, err := s.bookRepo.GetBookByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting book by ID %d", id)
		return nil, err
	}

	s.cacheBook(ctx, book)
	return book, nil
}

func (s *BookService) ListBooks(ctx context.Context, filter entity.BookFilter) ([]*entity.Book, error) {
	books, err := s.bookRepo.GetBooks(ctx, filter)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing books")
		return nil, err
	}
	return books, nil
}

// CreateBook stores a new book. A non-empty idempotentKey may only be used once
// per 24 hours.
func (s *BookService) CreateBook(ctx context.Context, book *entity.Book, idempotentKey string) (*entity.Book, error) {
	if err := prepareBook(book); err != nil {
		return nil, err
	}

	if idempotentKey != "" {
		ok, err := s.rdb.SetNX(ctx, idempotentKeyPrefix+idempotentKey, "exists", idempotentKeyTTL).Result()
		if err != nil {
			logger.Error().Err(err).Msg("Error checking idempotent key")
			return nil, err
		}
		if !ok {
			logger.Warn().Msgf("Duplicate create request with key %s", idempotentKey)
			return nil, ErrDuplicateRequest
		}
	}

	created, err := s.bookRepo.CreateBook(ctx, book)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating book")
		if idempotentKey != "" {
			// nothing was stored, so the client may retry with the same key
			if delErr := s.rdb.Del(ctx, idempotentKeyPrefix+idempotentKey).Err(); delErr != nil {
				logger.Error().Err(delErr).Msgf("Error releasing idempotent key %s", idempotentKey)
			}
		}
		return nil, err
	}

	s.cacheBook(ctx, created)
	s.publish(ctx, "created", created)
	return created, nil
}

func (s *BookService) UpdateBook(ctx context.Context, id int, book *entity.Book) (*entity.Book, error) {
	existing, err := s.bookRepo.GetBookByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting book by ID %d", id)
		return nil, err
	}

	if err := prepareBook(book); err != nil {
		return nil, err
	}
	book.ID = id
	book.CreatedAt = existing.CreatedAt

	updated, err := s.bookRepo.UpdateBook(ctx, book)
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating book %d", id)
		return nil, err
	}

	s.cacheBook(ctx, updated)
	s.publish(ctx, "updated", updated)
	return updated, nil
}

func (s *BookService) DeleteBook(ctx context.Context, id int) error {
	err := s.bookRepo.DeleteBook(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBookNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting book %d", id)
		return err
	}

	s.EvictCache(ctx, id)
	s.publish(ctx, "deleted", &entity.Book{ID: id})
	return nil
}

// RefreshCache overwrites the cached copy of book.
func (s *BookService) RefreshCache(ctx context.Context, book *entity.Book) {
	s.cacheBook(ctx, book)
}

func (s *BookService) EvictCache(ctx context.Context, id int) {
	if err := s.rdb.Del(ctx, bookCacheKey(id)).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error deleting book %d from cache", id)
	}
}

// PreWarmCache loads every book into the cache.
func (s *BookService) PreWarmCache(ctx context.Context) (int, error) {
	books, err := s.bookRepo.GetBooks(ctx, entity.BookFilter{})
	if err != nil {
		logger.Error().Err(err).Msg("Error getting books")
		return 0, err
	}

	for _, book := range books {
		s.cacheBook(ctx, book)
	}
	return len(books), nil
}

// PreWarmCacheAsync loads the book list and writes the cache entries in the
// background. The writes outlive ctx's cancellation; WaitWarmup blocks until
// they finish.
func (s *BookService) PreWarmCacheAsync(ctx context.Context) (int, error) {
	books, err := s.bookRepo.GetBooks(ctx, entity.BookFilter{})
	if err != nil {
		logger.Error().Err(err).Msg("Error getting books")
		return 0, err
	}

	bg := context.WithoutCancel(ctx)
	sem := make(chan struct{}, warmupWorkers)
	for _, book := range books {
		s.warmup.Add(1)
		go func(book *entity.Book) {
			defer s.warmup.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			s.cacheBook(bg, book)
		}(book)
	}
	return len(books), nil
}

func (s *BookService) WaitWarmup() {
	s.warmup.Wait()
}

func (s *BookService) cacheBook(ctx context.Context, book *entity.Book) {
	data, err := json.Marshal(book)
	if err != nil {
		logger.Error().Err(err).Msgf("Error marshalling book %d", book.ID)
		return
	}
	if err := s.rdb.Set(ctx, bookCacheKey(book.ID), data, s.cacheTTL).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error setting book %d in cache", book.ID)
	}
}

// publish emits book.<eventType>.<id>. Failures are logged; the database write
// has already happened.
func (s *BookService) publish(ctx context.Context, eventType string, book *entity.Book) {
	if s.publisher == nil {
		return
	}

	value, err := json.Marshal(entity.BookEvent{Type: eventType, Book: *book})
	if err != nil {
		logger.Error().Err(err).Msgf("Error marshalling %s event for book %d", eventType, book.ID)
		return
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("book.%s.%d", eventType, book.ID)),
		Value: value,
	}
	if err := s.publisher.WriteMessages(ctx, msg); err != nil {
		logger.Error().Err(err).Msgf("Error publishing %s event for book %d", eventType, book.ID)
		return
	}
	metrics.RecordBookEvent("out", eventType)
}

// prepareBook validates the payload and brings the price triple inside the
// reconciler invariants.
func prepareBook(book *entity.Book) error {
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)
	if book.Title == "" || book.Author == "" {
		return fmt.Errorf("%w: title and author are required", ErrInvalidInput)
	}
	if book.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}

	st := pricing.FromBook(book.OriginalPrice, book.FinalPrice, book.DiscountPercent)
	book.OriginalPrice = st.OriginalPrice
	book.FinalPrice = st.FinalPrice
	book.DiscountPercent = st.DiscountPercent
	return nil
}
