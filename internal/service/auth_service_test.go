package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"eta_monitor/internal/config"
	"eta_monitor/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// operatorsStub is an in-memory repository.Authorization.
type operatorsStub struct {
	byName   map[string]*models.User
	countErr error
	getErr   error
	createFn func(username, hash string) (int, error)

	created []string
	lookups []string
}

func newOperatorsStub() *operatorsStub {
	return &operatorsStub{byName: map[string]*models.User{}}
}

func (o *operatorsStub) Create(_ context.Context, username, hash string) (int, error) {
	o.created = append(o.created, username)
	if o.createFn != nil {
		return o.createFn(username, hash)
	}
	if _, ok := o.byName[username]; ok {
		return 0, ErrUsernameTaken
	}
	u := &models.User{ID: len(o.byName) + 1, Username: username, PasswordHash: hash}
	o.byName[username] = u
	return u.ID, nil
}

func (o *operatorsStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	o.lookups = append(o.lookups, username)
	if o.getErr != nil {
		return nil, o.getErr
	}
	return o.byName[username], nil
}

func (o *operatorsStub) Count(context.Context) (int, error) {
	return len(o.byName), o.countErr
}

const testSigningKey = "test-signing-key"

func newTestAuthService(repo *operatorsStub, open bool) *AuthService {
	return NewAuthService(repo, config.AuthConfig{SigningKey: testSigningKey, TokenTTL: time.Hour, OpenSignUp: open})
}

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func TestAuthService_FirstOperatorSignsUpAndSignsIn(t *testing.T) {
	repo := newOperatorsStub()
	svc := newTestAuthService(repo, false)
	ctx := context.Background()

	id, err := svc.SignUp(ctx, "  Admin ", "correct horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
	stored := repo.byName["admin"]
	if stored == nil {
		t.Fatalf("expected normalized username, stored %v", repo.created)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")) != nil {
		t.Fatalf("stored hash does not match the password")
	}

	token, err := svc.GenerateToken(ctx, "ADMIN", "correct horse")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	uid, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if uid != id {
		t.Fatalf("expected operator %d, got %d", id, uid)
	}
}

func TestAuthService_SignUpClosedAfterFirstOperator(t *testing.T) {
	repo := newOperatorsStub()
	svc := newTestAuthService(repo, false)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "admin", "password1"); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	if _, err := svc.SignUp(ctx, "intruder", "password2"); !errors.Is(err, ErrSignUpClosed) {
		t.Fatalf("expected ErrSignUpClosed, got %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("closed sign-up reached the repository: %v", repo.created)
	}
}

func TestAuthService_OpenSignUpAllowsMoreOperators(t *testing.T) {
	repo := newOperatorsStub()
	svc := newTestAuthService(repo, true)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "admin", "password1"); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	id, err := svc.SignUp(ctx, "installer", "password2")
	if err != nil {
		t.Fatalf("second SignUp: %v", err)
	}
	if id != 2 {
		t.Fatalf("expected id 2, got %d", id)
	}
	if _, err := svc.SignUp(ctx, "Admin", "password3"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthService_SignUpRejectsInput(t *testing.T) {
	long := make([]byte, maxUsernameLength+1)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"blank username", "   ", "password1", ErrBadUsername},
		{"inner space", "heating admin", "password1", ErrBadUsername},
		{"too long", string(long), "password1", ErrBadUsername},
		{"short password", "admin", "pw", ErrWeakPassword},
		{"short multibyte password", "admin", "äöüßäöü", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newOperatorsStub()
			svc := newTestAuthService(repo, true)

			if _, err := svc.SignUp(context.Background(), tt.username, tt.password); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(repo.created) != 0 {
				t.Fatalf("invalid input reached the repository: %v", repo.created)
			}
		})
	}
}

func TestAuthService_SignUpRepositoryErrors(t *testing.T) {
	t.Run("count fails", func(t *testing.T) {
		repo := newOperatorsStub()
		repo.countErr = errors.New("database is locked")
		svc := newTestAuthService(repo, false)

		if _, err := svc.SignUp(context.Background(), "admin", "password1"); err == nil {
			t.Fatalf("expected count error")
		}
		if len(repo.created) != 0 {
			t.Fatalf("Create called after a failed count")
		}
	})

	t.Run("create fails", func(t *testing.T) {
		repo := newOperatorsStub()
		repo.createFn = func(string, string) (int, error) { return 0, errors.New("disk full") }
		svc := newTestAuthService(repo, false)

		if _, err := svc.SignUp(context.Background(), "admin", "password1"); err == nil {
			t.Fatalf("expected create error")
		}
	})
}

func TestAuthService_GenerateTokenFailures(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		getErr   error
		want     error
	}{
		{name: "unknown operator", username: "ghost", password: "password1", want: ErrUserNotFound},
		{name: "blank username", username: " ", password: "password1", want: ErrUserNotFound},
		{name: "wrong password", username: "admin", password: "password2", want: ErrInvalidPassword},
		{name: "lookup fails", username: "admin", password: "password1", getErr: errors.New("query failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newOperatorsStub()
			repo.byName["admin"] = &models.User{ID: 1, Username: "admin", PasswordHash: string(hash)}
			repo.getErr = tt.getErr
			svc := newTestAuthService(repo, false)

			token, err := svc.GenerateToken(context.Background(), tt.username, tt.password)
			if err == nil || token != "" {
				t.Fatalf("expected failure, got token %q", token)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAuthService_ParseTokenRejects(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey: %v", err)
	}
	now := time.Now()
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "5",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
	}
	with := func(mut func(*jwt.RegisteredClaims)) jwt.RegisteredClaims {
		c := valid()
		mut(&c)
		return c
	}

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not-a-jwt"},
		{"foreign key", signed(t, jwt.SigningMethodHS256, []byte("other-key"), valid())},
		{"rsa signed", signed(t, jwt.SigningMethodRS256, rsaKey, valid())},
		{"expired", signed(t, jwt.SigningMethodHS256, []byte(testSigningKey), with(func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
		}))},
		{"no expiry", signed(t, jwt.SigningMethodHS256, []byte(testSigningKey), with(func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = nil
		}))},
		{"other issuer", signed(t, jwt.SigningMethodHS256, []byte(testSigningKey), with(func(c *jwt.RegisteredClaims) {
			c.Issuer = "someone-else"
		}))},
		{"non-numeric subject", signed(t, jwt.SigningMethodHS256, []byte(testSigningKey), with(func(c *jwt.RegisteredClaims) {
			c.Subject = "admin"
		}))},
	}

	svc := newTestAuthService(newOperatorsStub(), false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ParseToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestAuthService_TokenCarriesIssuerAndTTL(t *testing.T) {
	svc := NewAuthService(newOperatorsStub(), config.AuthConfig{SigningKey: testSigningKey, TokenTTL: 5 * time.Minute})

	token, err := svc.issueToken(3)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSigningKey), nil
	}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Issuer != tokenIssuer || claims.Subject != "3" {
		t.Fatalf("unexpected claims: iss=%q sub=%q", claims.Issuer, claims.Subject)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %v", ttl)
	}
}

func TestAuthService_DefaultTTLWhenUnset(t *testing.T) {
	svc := NewAuthService(newOperatorsStub(), config.AuthConfig{SigningKey: testSigningKey})
	if svc.tokenTTL != defaultTokenTTL {
		t.Fatalf("expected default ttl, got %v", svc.tokenTTL)
	}
}
