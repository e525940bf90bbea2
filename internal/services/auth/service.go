// Package auth authenticates back-office operators and issues their JWTs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"swapledger/internal/models"
	"swapledger/internal/repositories"
	"swapledger/internal/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const DefaultTokenTTL = 15 * time.Minute

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionExpired     = errors.New("session expired")
)

type Service interface {
	Login(ctx context.Context, email, password string) (*models.Operator, string, error)
	Authenticate(ctx context.Context, token string) (*models.OperatorClaims, error)
}

type service struct {
	operators repositories.OperatorRepository
	secret    string
	ttl       time.Duration
	clock     clockwork.Clock
	logger    *zap.Logger
}

func NewService(operators repositories.OperatorRepository, secret string, ttl time.Duration, clock clockwork.Clock, logger *zap.Logger) Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		operators: operators,
		secret:    secret,
		ttl:       ttl,
		clock:     clock,
		logger:    logger.Named("auth"),
	}
}

func (s *service) Login(ctx context.Context, email, password string) (*models.Operator, string, error) {
	operator, err := s.operators.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrOperatorNotFound) {
			s.logger.Info("login failed: unknown operator", zap.String("email", email))
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed: wrong password", zap.Uint("operator_id", operator.ID))
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(s.secret, &models.OperatorClaims{
		OperatorID:   operator.ID,
		Email:        operator.Email,
		Role:         operator.Role,
		Permissions:  models.GetDefaultPermissions(operator.Role),
		TokenVersion: operator.TokenVersion,
	}, s.clock.Now(), s.ttl)
	if err != nil {
		return nil, "", fmt.Errorf("error generating token: %w", err)
	}
	return operator, token, nil
}

// Authenticate parses token and checks it was issued for the operator's
// current token version.
func (s *service) Authenticate(ctx context.Context, token string) (*models.OperatorClaims, error) {
	claims, err := utils.ParseToken(s.secret, token, s.clock.Now())
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}

	operator, err := s.operators.GetByID(ctx, claims.OperatorID)
	if err != nil {
		if errors.Is(err, repositories.ErrOperatorNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if operator.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionExpired
	}
	return claims, nil
}

// HashPassword is used when seeding operators.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
