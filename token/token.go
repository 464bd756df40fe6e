// Package token mints and validates the access/refresh JWT pair that
// backs a browser session. Both tokens are signed with a process-wide
// secret; they differ only in TTL and in the typ claim, which keeps a
// refresh token from being replayed as an access token.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	// KindAccess marks short-lived tokens authorizing normal requests.
	KindAccess = "access"
	// KindRefresh marks longer-lived tokens used only to mint new pairs.
	KindRefresh = "refresh"
)

// ErrTokenExpired is returned for structurally valid but expired tokens.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode("token_expired").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be parsed or its
// signature does not check out.
var ErrTokenMalformed = errors.New("invalid or malformed token", errors.CategoryAuth).
	WithTextCode("token_malformed").
	WithCode(errors.CodeUnauthorized)

// ErrWrongTokenKind is returned when an access token is presented on
// the refresh path or vice versa.
var ErrWrongTokenKind = errors.New("wrong token kind", errors.CategoryAuth).
	WithTextCode("token_wrong_kind").
	WithCode(errors.CodeUnauthorized)

// Claims are the session claims carried by both token kinds. Subject
// holds the account email.
type Claims struct {
	jwt.RegisteredClaims
	Kind string `json:"typ,omitempty"`
}

// Pair is one access token plus its refresh counterpart.
type Pair struct {
	Access  string
	Refresh string
}

// Service signs and validates session tokens.
type Service struct {
	signingKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService builds a Service. A missing secret is a configuration
// error and should abort startup.
func NewService(secret, issuer string, accessTTL, refreshTTL time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("missing JWT signing secret", errors.CategoryInternal)
	}

	return &Service{
		signingKey: []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// AccessTTL returns the access token lifetime, used for cookie expiry.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the refresh token lifetime, used for cookie expiry.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// IssuePair mints a fresh access/refresh pair for the given subject.
func (s *Service) IssuePair(subject string) (Pair, error) {
	access, err := s.sign(subject, KindAccess, s.accessTTL)
	if err != nil {
		return Pair{}, err
	}

	refresh, err := s.sign(subject, KindRefresh, s.refreshTTL)
	if err != nil {
		return Pair{}, err
	}

	return Pair{Access: access, Refresh: refresh}, nil
}

func (s *Service) sign(subject, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Validate parses an access token and returns its claims.
func (s *Service) Validate(raw string) (*Claims, error) {
	return s.validate(raw, KindAccess)
}

// ValidateRefresh parses a refresh token and returns its claims.
func (s *Service) ValidateRefresh(raw string) (*Claims, error) {
	return s.validate(raw, KindRefresh)
}

func (s *Service) validate(raw, kind string) (*Claims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if s.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(errors.CodeUnauthorized)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.Kind != kind {
		return nil, ErrWrongTokenKind
	}

	return claims, nil
}
