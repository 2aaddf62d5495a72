package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/config"
	"github.com/phrazzld/tareas-api/internal/platform/logger"
)

// MinSecretLength is the minimum accepted length of the HMAC signing key.
const MinSecretLength = 32

// TokenService issues and verifies stateless bearer tokens.
type TokenService interface {
	// Issue creates a signed token for subject that expires after Lifetime.
	Issue(ctx context.Context, subject string) (string, error)

	// Verify checks the token signature and expiry and returns its subject.
	// Any failure yields ErrInvalidToken.
	Verify(ctx context.Context, token string) (string, error)

	// Lifetime is the validity window of issued tokens.
	Lifetime() time.Duration
}

// hmacTokenService implements TokenService with HMAC-SHA256 JWTs.
type hmacTokenService struct {
	signingKey []byte
	lifetime   time.Duration
	timeFunc   func() time.Time // Injectable for testing
}

var _ TokenService = (*hmacTokenService)(nil)

// NewTokenService creates a token service from the auth configuration.
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	return NewTokenServiceWithClock(cfg.JWTSecret, cfg.TokenLifetime(), time.Now)
}

// NewTokenServiceWithClock creates a token service with an explicit clock.
func NewTokenServiceWithClock(
	secret string,
	lifetime time.Duration,
	timeFunc func() time.Time,
) (TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", lifetime)
	}
	if timeFunc == nil {
		timeFunc = time.Now
	}

	return &hmacTokenService{
		signingKey: []byte(secret),
		lifetime:   lifetime,
		timeFunc:   timeFunc,
	}, nil
}

// Issue creates a signed JWT with sub, iat, exp and jti claims.
func (s *hmacTokenService) Issue(ctx context.Context, subject string) (string, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign token",
			"error", err,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign token with HMAC-SHA256: %w", err)
	}

	return signed, nil
}

// Verify parses tokenString and returns its subject.
func (s *hmacTokenService) Verify(ctx context.Context, tokenString string) (string, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)
	if err != nil {
		log.Debug("token verification failed",
			"error", err,
			"error_type", fmt.Sprintf("%T", err))
		return "", ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		log.Debug("token verification failed: missing subject")
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// Lifetime returns the configured token lifetime.
func (s *hmacTokenService) Lifetime() time.Duration {
	return s.lifetime
}
