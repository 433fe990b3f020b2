package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"bookstore-service/internal/entity"
	"bookstore-service/internal/metrics"
	"bookstore-service/internal/pricing"
)

// BookGetter loads the record a pricing session starts from.
type BookGetter interface {
	GetBook(ctx context.Context, id int) (*entity.Book, error)
}

// PricingService keeps book-form price sessions in Redis. Each session is owned
// by a single editor, so edits are plain read-reduce-write.
type PricingService struct {
	books BookGetter
	rdb   *redis.Client
	ttl   time.Duration
}

func NewPricingService(books BookGetter, rdb *redis.Client, ttl time.Duration) *PricingService {
	return &PricingService{
		books: books,
		rdb:   rdb,
		ttl:   ttl,
	}
}

func sessionKey(id string) string {
	return "pricing_session:" + id
}

// Reconcile applies a single edit without any stored session.
func (s *PricingService) Reconcile(state pricing.State, field pricing.Field, raw string) pricing.State {
	metrics.RecordPricingEdit(field.String())
	return pricing.Apply(state, field, raw)
}

// StartSession opens a session initialised from the book, or from empty
// defaults when bookID is 0.
func (s *PricingService) StartSession(ctx context.Context, bookID int) (*entity.PricingSession, error) {
	state, err := s.initialState(ctx, bookID)
	if err != nil {
		return nil, err
	}

	session := &entity.PricingSession{
		ID:     uuid.NewString(),
		BookID: bookID,
		State:  state,
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *PricingService) GetSession(ctx context.Context, id string) (*entity.PricingSession, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting pricing session %s", id)
		return nil, err
	}

	var session entity.PricingSession
	if err := json.Unmarshal(data, &session); err != nil {
		logger.Error().Err(err).Msgf("Error unmarshalling pricing session %s", id)
		return nil, err
	}
	return &session, nil
}

// ApplyEdit reduces one raw form edit into the session.
func (s *PricingService) ApplyEdit(ctx context.Context, id string, field pricing.Field, raw string) (*entity.PricingSession, error) {
	if field == pricing.FieldNone {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, pricing.ErrUnknownField)
	}
	return s.update(ctx, id, func(st pricing.State) pricing.State {
		return s.Reconcile(st, field, raw)
	})
}

// ClearOriginal removes the original price while keeping the edit focus.
func (s *PricingService) ClearOriginal(ctx context.Context, id string) (*entity.PricingSession, error) {
	return s.update(ctx, id, pricing.State.OnOriginalPriceCleared)
}

// ResetSession reloads the session from its book, or from defaults.
func (s *PricingService) ResetSession(ctx context.Context, id string) (*entity.PricingSession, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	state, err := s.initialState(ctx, session.BookID)
	if err != nil {
		return nil, err
	}
	session.State = state
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *PricingService) DeleteSession(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting pricing session %s", id)
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PricingService) update(ctx context.Context, id string, fn func(pricing.State) pricing.State) (*entity.PricingSession, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	session.State = fn(session.State)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *PricingService) initialState(ctx context.Context, bookID int) (pricing.State, error) {
	if bookID == 0 {
		return pricing.Defaults(), nil
	}

	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return pricing.State{}, err
	}
	return pricing.FromBook(book.OriginalPrice, book.FinalPrice, book.DiscountPercent), nil
}

func (s *PricingService) save(ctx context.Context, session *entity.PricingSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error saving pricing session %s", session.ID)
		return err
	}
	return nil
}
