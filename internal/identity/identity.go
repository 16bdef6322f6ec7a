package identity

import (
	"context"
	"fmt"
	"time"

	"exam-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "exam-service"

// Account is a stored credential.
type Account struct {
	Username     string
	PasswordHash string // bcrypt
	Role         domain.Role
}

// Service verifies credentials and issues signed session tokens.
type Service struct {
	accounts map[string]Account
	hmac     []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func NewService(accounts []Account, secret string, tokenTTL time.Duration) *Service {
	byName := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		byName[a.Username] = a
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &Service{
		accounts: byName,
		hmac:     []byte(secret),
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// Authenticate checks a username/secret pair.
func (s *Service) Authenticate(_ context.Context, username, secret string) (domain.User, error) {
	account, ok := s.accounts[username]
	if !ok {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(secret)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return domain.User{Username: account.Username, Role: account.Role}, nil
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for user.
func (s *Service) IssueToken(user domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		Role: user.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.hmac)
}

// ParseToken validates a token and returns the user it was issued for.
func (s *Service) ParseToken(raw string) (domain.User, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.User{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return domain.User{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return domain.User{Username: claims.Subject, Role: role}, nil
}

type ctxKey struct{}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// CurrentUser returns the authenticated user, or nil when nobody is signed in.
func CurrentUser(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(ctxKey{}).(domain.User); ok {
		return &u
	}
	return nil
}
