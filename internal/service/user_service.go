package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"bookstore-service/internal/entity"
	"bookstore-service/internal/repository"
)

type UserService struct {
	repo     *repository.UserRepository
	rdb      *redis.Client
	secret   []byte
	tokenTTL time.Duration
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo *repository.UserRepository, rdb *redis.Client, secret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		repo:     repo,
		rdb:      rdb,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

type JwtCustomClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func sessionTokenKey(email string) string {
	return "session:" + email
}

func (s *UserService) GetUserByID(ctx context.Context, id int) (*entity.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting user by ID %d", id)
		return nil, err
	}

	return user, nil
}

// CreateUser stores user with password hashed.
func (s *UserService) CreateUser(ctx context.Context, user *entity.User, password string) (*entity.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if user.Role == "" {
		user.Role = entity.RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.Password = string(hash)

	createdUser, err := s.repo.CreateUser(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%w: user %s", ErrAlreadyExists, user.Email)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}

	return createdUser, nil
}

// EnsureAdmin creates the first admin when the users table is empty.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	n, err := s.repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	_, err = s.CreateUser(ctx, &entity.User{Username: "admin", Email: email, Role: entity.RoleAdmin}, password)
	if err == nil {
		logger.Info().Msgf("Seeded admin user %s", email)
	}
	return err
}

// Login checks the credentials and issues a JWT. The token is also kept in
// Redis so that a session can be revoked.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := &JwtCustomClaims{
		Name:  user.Username,
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		},
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := tkn.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	if err := s.rdb.Set(ctx, sessionTokenKey(user.Email), t, s.tokenTTL).Err(); err != nil {
		return "", err
	}

	return t, nil
}

// ValidateToken parses token and checks it is the live session of its owner.
func (s *UserService) ValidateToken(ctx context.Context, token string) (*JwtCustomClaims, error) {
	claims := &JwtCustomClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	stored, err := s.rdb.Get(ctx, sessionTokenKey(claims.Email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: session not found", ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if stored != token {
		return nil, fmt.Errorf("%w: session replaced", ErrInvalidCredentials)
	}

	return claims, nil
}

func (s *UserService) Logout(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, sessionTokenKey(email)).Err()
}
