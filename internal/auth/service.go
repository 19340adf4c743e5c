package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/store"
)

const (
	defaultAccessTTL  = 12 * time.Hour
	minPasswordLength = 8
)

// Queries is the slice of store.Queries the auth service reads and writes.
type Queries interface {
	CreateOwner(ctx context.Context, email, passwordHash string) (store.Owner, error)
	GetOwnerByEmail(ctx context.Context, email string) (store.Owner, error)
	GetOwnerByID(ctx context.Context, id string) (store.Owner, error)
}

// Service signs owners up, signs them in and verifies their access tokens.
type Service struct {
	queries   Queries
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Queries        Queries
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// Owner is the public view of a store owner account.
type Owner struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is returned after a successful sign in.
type Session struct {
	Owner        Owner     `json:"owner"`
	AccessToken  string    `json:"accessToken"`
	AccessExpiry time.Time `json:"accessExpiresAt"`
}

// NewService constructs a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	signer := jwa.HS256
	return &Service{
		queries:   cfg.Queries,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    signer,
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		clockSkew: clockSkew,
		validator: TokenValidator{
			Issuer:    cfg.Issuer,
			Audience:  cfg.Audience,
			ClockSkew: clockSkew,
			Algorithm: signer,
		},
	}, nil
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an owner account.
func (s *Service) Signup(ctx context.Context, email, password string) (Owner, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return Owner{}, common.BadRequest("email", "a valid email is required", err)
	}
	if len(password) < minPasswordLength {
		return Owner{}, common.NewAppError("WEAK_PASSWORD", "password must be at least 8 characters", http.StatusBadRequest, nil)
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return Owner{}, fmt.Errorf("hash password: %w", err)
	}
	o, err := s.queries.CreateOwner(ctx, email, hash)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Owner{}, common.Conflict("EMAIL_ALREADY_USED", "email already registered", err)
		}
		return Owner{}, fmt.Errorf("create owner: %w", err)
	}
	return toOwner(o), nil
}

// Signin checks the credentials and issues an access token.
func (s *Service) Signin(ctx context.Context, email, password string) (Session, error) {
	invalid := common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	o, err := s.queries.GetOwnerByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, invalid
		}
		return Session{}, fmt.Errorf("get owner: %w", err)
	}
	match, err := argon2id.ComparePasswordAndHash(password, o.PasswordHash)
	if err != nil {
		return Session{}, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		return Session{}, invalid
	}
	token, expiresAt, err := s.signAccessToken(o.ID)
	if err != nil {
		return Session{}, fmt.Errorf("sign access token: %w", err)
	}
	return Session{Owner: toOwner(o), AccessToken: token, AccessExpiry: expiresAt}, nil
}

// Me returns the owner behind an authenticated request.
func (s *Service) Me(ctx context.Context, ownerID string) (Owner, error) {
	o, err := s.queries.GetOwnerByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Owner{}, common.NotFound("owner", err)
		}
		return Owner{}, fmt.Errorf("get owner: %w", err)
	}
	return toOwner(o), nil
}

// ParseAccessToken validates an access token and returns the owner id it was issued to.
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if parsed.Subject() == "" {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, errors.New("token has no subject"))
	}
	return parsed.Subject(), nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		switch {
		case alg == "":
			return "", errors.New("auth: token missing algorithm")
		case alg == jwa.NoSignature:
			return "", errors.New("auth: token uses none algorithm")
		case algorithm == "":
			algorithm = alg
		case algorithm != alg:
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(ownerID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	tok, err := jwt.NewBuilder().
		Subject(ownerID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func toOwner(o store.Owner) Owner {
	return Owner{ID: o.ID, Email: o.Email, CreatedAt: o.CreatedAt}
}
