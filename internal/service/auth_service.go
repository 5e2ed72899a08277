package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"eta_monitor/internal/config"
	"eta_monitor/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL   = time.Hour
	tokenIssuer       = "eta-monitor"
	minPasswordLength = 8
	maxUsernameLength = 64
)

// Auth errors.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrSignUpClosed    = errors.New("sign-up is closed: an operator already exists")
	ErrUsernameTaken   = repository.ErrUsernameTaken
	ErrWeakPassword    = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrBadUsername     = fmt.Errorf("username must be 1 to %d characters without spaces", maxUsernameLength)
)

// AuthService registers operators and issues bearer tokens for the API.
// Unless OpenSignUp is set only the first operator may register.
type AuthService struct {
	operators  repository.Authorization
	signingKey []byte
	tokenTTL   time.Duration
	openSignUp bool
	parser     *jwt.Parser
}

func NewAuthService(repo repository.Authorization, cfg config.AuthConfig) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{
		operators:  repo,
		signingKey: []byte(cfg.SigningKey),
		tokenTTL:   ttl,
		openSignUp: cfg.OpenSignUp,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
		),
	}
}

func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	name, err := normalizeUsername(username)
	if err != nil {
		return 0, err
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return 0, ErrWeakPassword
	}
	if !s.openSignUp {
		n, err := s.operators.Count(ctx)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			return 0, ErrSignUpClosed
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	return s.operators.Create(ctx, name, string(hash))
}

// GenerateToken checks the credentials and returns a signed token.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	name, err := normalizeUsername(username)
	if err != nil {
		return "", ErrUserNotFound
	}
	u, err := s.operators.GetByUsername(ctx, name)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidPassword
	}
	return s.issueToken(u.ID)
}

// ParseToken returns the operator id carried in the token subject.
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	var claims jwt.RegisteredClaims
	if _, err := s.parser.ParseWithClaims(accessToken, &claims, func(*jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	}); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return id, nil
}

func (s *AuthService) issueToken(operatorID int) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   strconv.Itoa(operatorID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	})
	return token.SignedString(s.signingKey)
}

// normalizeUsername trims and lower-cases so sign-in is case-insensitive.
func normalizeUsername(username string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(username))
	if name == "" || utf8.RuneCountInString(name) > maxUsernameLength || strings.ContainsAny(name, " \t\r\n") {
		return "", ErrBadUsername
	}
	return name, nil
}
