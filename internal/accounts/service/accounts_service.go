package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pushpak01/pushtoys-render/internal/accounts/domain"
	"github.com/pushpak01/pushtoys-render/internal/accounts/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
)

const minPasswordLength = 8

// AccountsService handles registration, login and profile updates.
type AccountsService struct {
	repo repository.UserRepository
	log  *zap.SugaredLogger
}

func NewAccountsService(repo repository.UserRepository, log *zap.SugaredLogger) *AccountsService {
	return &AccountsService{
		repo: repo,
		log:  log,
	}
}

// Register creates a new customer account. The password is stored only as
// a bcrypt hash.
func (s *AccountsService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infow("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate verifies a username/password pair. Lookup misses and hash
// mismatches both come back as ErrInvalidCredentials so the caller cannot
// tell which half was wrong.
func (s *AccountsService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountsService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *AccountsService) UpdateProfile(ctx context.Context, userID, address, phone string) (*domain.User, error) {
	if err := s.repo.UpdateProfile(ctx, userID, strings.TrimSpace(address), strings.TrimSpace(phone)); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, userID)
}
