// Package auth covers registration, login and identity lookup. The core
// services never see credentials; they receive the authenticated principal
// from the JWT claims this package issues.
package auth

import (
	"context"
	"errors"

	"peerpay/internal/logger"
	"peerpay/internal/models"
	"peerpay/internal/repositories"
	"peerpay/internal/utils"
	"peerpay/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// Identity is the authenticated account plus its trader profile when the
// role can trade.
type Identity struct {
	User   *models.User   `json:"user"`
	Trader *models.Trader `json:"trader,omitempty"`
}

type Service interface {
	Register(ctx context.Context, email, password string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Me(ctx context.Context, userID string) (*Identity, error)
}

type service struct {
	users   repositories.UserRepository
	traders repositories.TraderRepository
}

func New(users repositories.UserRepository, traders repositories.TraderRepository) Service {
	return &service{users: users, traders: traders}
}

func (s *service) Register(ctx context.Context, email, password string) (*models.User, string, error) {
	if !validation.ValidPassword(password) {
		return nil, "", ErrWeakPassword
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	logger.Log.Info("user registered", zap.String("user_id", user.ID))
	return user, token, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *service) Me(ctx context.Context, userID string) (*Identity, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	identity := &Identity{User: user}
	if user.Role.CanTrade() {
		if trader, err := s.traders.GetByUserID(ctx, userID); err == nil {
			identity.Trader = trader
		}
	}
	return identity, nil
}
