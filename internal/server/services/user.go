// Package services contains server-side business logic: user sessions and
// the one-time message lifecycle.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropnote/dropnote/internal/common"
	"github.com/dropnote/dropnote/internal/logging"
	"github.com/dropnote/dropnote/internal/server/auth"
	"github.com/dropnote/dropnote/internal/server/config"
	"github.com/dropnote/dropnote/internal/server/models"
	"github.com/dropnote/dropnote/internal/server/repositories/users"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserService handles registration, login and the sliding session window.
type UserService struct {
	repo   users.Repository
	config *config.Config
	logger logging.Logger
}

func NewUserService(repo users.Repository, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		repo:   repo,
		config: cfg,
		logger: logger.With("module", "user_service"),
	}
}

// Register creates a new user with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password too short", common.ErrorValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, common.ErrorInternal
	}
	return created, nil
}

// Login verifies credentials and issues a fresh session token. Missing users
// and wrong passwords are both reported as unauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorUnauthorized
		}
		return nil, "", common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, "", common.ErrorUnauthorized
	}

	token, err := auth.IssueToken(user.ID, []byte(s.config.SecretKey), s.config.TokenValidityDuration)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return user, token, nil
}

// Extend slides the session window. An empty result with nil error means the
// session hit its age ceiling and the caller must log in again.
func (s *UserService) Extend(ctx context.Context, token string) (string, error) {
	extended, err := auth.ExtendToken(token, []byte(s.config.SecretKey),
		s.config.TokenValidityDuration, s.config.ExtendLimit)
	if err != nil {
		if errors.Is(err, common.ErrClockAnomaly) {
			s.logger.Warn(ctx, "session token issued in the future, rejecting")
			return "", common.ErrorUnauthorized
		}
		return "", err
	}
	return extended, nil
}

// GetByID resolves a user for authenticated requests.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func validEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
