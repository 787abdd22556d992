package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"webcore/internal/domain"
)

// Verifier checks tokens minted by an Issuer sharing the same Config.
// Only HS256 is accepted and no clock skew is tolerated.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(cfg *Config, opts ...Option) (*Verifier, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Verifier{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		now:    o.now,
	}, nil
}

// Verify parses raw and returns its claims. Failures wrap
// domain.ErrTokenExpired or domain.ErrInvalidToken.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		// SECURITY: only HS256, prevents algorithm confusion attacks
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email claim", domain.ErrInvalidToken)
	}
	return claims, nil
}

// Authenticate implements webapi.Authenticator.
func (v *Verifier) Authenticate(raw string) (domain.Principal, error) {
	claims, err := v.Verify(raw)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{Email: claims.Email, Subject: claims.Subject}, nil
}
