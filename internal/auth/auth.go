// Package auth issues and verifies the signed bearer tokens of the service
// and provides the HTTP middleware guarding the protected routes.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/recipes/internal/logger"
)

const (
	// Issuer is the fixed "iss" claim.
	Issuer = "recipe-app"

	// Subject is the fixed "sub" claim.
	Subject = "recipe-app"

	// DefaultTTL is the token lifetime.
	DefaultTTL = time.Hour
)

var (
	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingToken is returned when the request carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrSecretMissing is returned when the key file is absent or empty.
	ErrSecretMissing = errors.New("token secret key file is missing or empty")
)

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds the user identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int    `json:"id"`
	Username string `json:"username"`
}

// TokenPayload is the identity recovered from a verified token.
type TokenPayload struct {
	ID       int
	Username string
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// PayloadKey is the context key holding the *TokenPayload of the authenticated request.
const PayloadKey ContextKey = "tokenPayload"

// Auth signs and verifies tokens with a process-wide HMAC secret.
type Auth struct {
	secret   []byte
	audience string
	ttl      time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

type initOptions struct {
	now func() time.Time
}

// InitOption configures an Auth instance.
type InitOption func(*initOptions)

// WithClock replaces the time source used to stamp and age tokens.
// Verify checks the validity window against this clock only.
func WithClock(now func() time.Time) InitOption {
	return func(options *initOptions) {
		options.now = now
	}
}

// New creates an Auth with the given secret. audience is the expected "aud" claim.
func New(secret []byte, audience string, ttl time.Duration, optionsProto ...InitOption) *Auth {
	options := &initOptions{
		now: time.Now,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	// exp, iat and nbf are checked in Verify against a.now.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	return &Auth{
		secret:   secret,
		audience: audience,
		ttl:      ttl,
		now:      options.now,
		parser:   parser,
	}
}

// LoadSecret reads the signing secret from a standalone key file.
func LoadSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSecretMissing, err)
	}

	secret := bytes.TrimSpace(data)
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSecretMissing, path)
	}

	return secret, nil
}

// Issue returns a signed token asserting the given identity.
func (a *Auth) Issue(userID int, username string) (string, error) {
	issuedAt := a.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   Subject,
			Audience:  jwt.ClaimStrings{a.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(a.ttl)),
		},
		UserID:   userID,
		Username: username,
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("in internal/auth/auth.go/Issue(): error while `token.SignedString()` calling: %w", err)
	}

	return tokenString, nil
}

// Verify checks signature, algorithm, fixed claims and validity window of the token.
// Every failure is reported as an error wrapping ErrInvalidToken.
func (a *Auth) Verify(tokenString string) (*TokenPayload, error) {
	claims := &Claims{}
	token, err := a.parser.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.secret, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if !claims.VerifyIssuer(Issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.Subject != Subject {
		return nil, fmt.Errorf("%w: unexpected subject %q", ErrInvalidToken, claims.Subject)
	}
	if !claims.VerifyAudience(a.audience, true) {
		return nil, fmt.Errorf("%w: unexpected audience %v", ErrInvalidToken, claims.Audience)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: token has no validity window", ErrInvalidToken)
	}
	now := a.now()
	if now.Before(claims.IssuedAt.Time) {
		return nil, fmt.Errorf("%w: token used before issued", ErrInvalidToken)
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return nil, fmt.Errorf("%w: token is not valid yet", ErrInvalidToken)
	}
	if !now.Before(claims.ExpiresAt.Time) || now.Sub(claims.IssuedAt.Time) > a.ttl {
		return nil, fmt.Errorf("%w: token is too old", ErrInvalidToken)
	}

	return &TokenPayload{
		ID:       claims.UserID,
		Username: claims.Username,
	}, nil
}

func getBearerToken(request *http.Request) (string, error) {
	header := request.Header.Get("Authorization")
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}

	return token, nil
}

// Authenticate is an HTTP middleware that rejects requests without a valid
// bearer token with 401 and stores the token payload in the request context.
func (a *Auth) Authenticate(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString, err := getBearerToken(request)
		if err != nil {
			logger.Log.Debugln("Error calling the `getBearerToken()`: ", zap.Error(err))
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		payload, err := a.Verify(tokenString)
		if err != nil {
			logger.Log.Infoln("Error in auth check: ", zap.Error(err))
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(request.Context(), PayloadKey, payload)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// PayloadFromContext returns the payload stored by Authenticate.
func PayloadFromContext(ctx context.Context) (*TokenPayload, bool) {
	payload, ok := ctx.Value(PayloadKey).(*TokenPayload)
	return payload, ok && payload != nil
}
