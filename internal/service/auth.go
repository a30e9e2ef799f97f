package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/repository"
)

const minPasswordLen = 8

// Claims is the JWT payload carried by access tokens.
type Claims struct {
	UserID uuid.UUID  `json:"uid"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles account registration, login and token parsing.
type AuthService interface {
	// Register creates a USER-role account with a bcrypt-hashed password.
	Register(ctx context.Context, email, password string) (*model.User, error)

	// Login verifies credentials and returns a signed JWT plus the user.
	Login(ctx context.Context, email, password string) (string, *model.User, error)

	// Parse validates a JWT and returns its claims.
	Parse(tokenStr string) (*Claims, error)
}

type authService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	log    *zap.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UserRepository, secret string, ttl time.Duration, log *zap.Logger) AuthService {
	return &authService{users: users, secret: []byte(secret), ttl: ttl, log: log}
}

func (s *authService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return nil, apperr.Validation("invalid email address")
	}
	if len(password) < minPasswordLen {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	stored, err := s.users.Create(ctx, u)
	if err != nil {
		if apperr.IsKind(err, apperr.KindConstraintViolation) {
			return nil, apperr.Validation("email already registered")
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", stored.ID.String()))
	return stored, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, apperr.Validation("invalid email or password")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.Validation("invalid email or password")
	}

	now := time.Now()
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, u, nil
}

func (s *authService) Parse(tokenStr string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
