package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tutorbook/internal/domain"
	"tutorbook/internal/pkg/logger"
	"tutorbook/internal/repository"
)

// Service is the identity provider: registration, password login and the
// current-user lookup.
type Service struct {
	users UserRepository
	jwt   TokenIssuer
	cost  int
	log   *slog.Logger
}

func NewService(users UserRepository, jwt TokenIssuer, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{users: users, jwt: jwt, cost: bcrypt.DefaultCost, log: log}
}

// Register creates a student or tutor account. Admins are only created by
// the seed command.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	const op = "auth.Service.Register"

	role := domain.UserRole(req.Role)
	if role != domain.RoleStudent && role != domain.RoleTutor {
		return nil, fmt.Errorf("%s: %w: role must be student or tutor", op, domain.ErrInvalidInput)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Name:         strings.TrimSpace(req.Name),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}

	s.log.Info("user registered", slog.Int64("user_id", u.ID), slog.String("role", string(u.Role)))
	u.PasswordHash = ""
	return u, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	const op = "auth.Service.Login"

	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u.PasswordHash = ""
	return &LoginResult{User: u, AccessToken: token}, nil
}

func (s *Service) Me(ctx context.Context, userID int64) (*domain.User, error) {
	const op = "auth.Service.Me"

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}
	u.PasswordHash = ""
	return u, nil
}
