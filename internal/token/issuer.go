package token

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"webcore/internal/domain"
)

// Claims is the payload of every token: the caller's email plus the
// registered claims (sub, iat, nbf, exp and optionally iss).
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer mints HMAC-SHA256 signed access tokens. It holds no mutable state
// and is safe for concurrent use.
type Issuer struct {
	secret   []byte
	lifetime time.Duration
	minutes  int
	issuer   string
	now      func() time.Time
}

// NewIssuer validates cfg and returns an Issuer. Errors are
// *domain.ArgumentError naming the offending setting.
func NewIssuer(cfg *Config, opts ...Option) (*Issuer, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Issuer{
		secret:   []byte(cfg.Secret),
		lifetime: time.Duration(cfg.ExpirationInMinutes) * time.Minute,
		minutes:  cfg.ExpirationInMinutes,
		issuer:   cfg.Issuer,
		now:      o.now,
	}, nil
}

// Issue mints a token carrying only the email. A zero now means the
// issuer's clock.
func (i *Issuer) Issue(email string, now time.Time) (domain.AccessToken, error) {
	return i.issue(email, "", now)
}

// IssueForUser mints a token whose subject is the decimal userID.
func (i *Issuer) IssueForUser(email string, userID int, now time.Time) (domain.AccessToken, error) {
	return i.issue(email, strconv.Itoa(userID), now)
}

// IssueForUUID mints a token whose subject is the canonical form of userID.
func (i *Issuer) IssueForUUID(email string, userID uuid.UUID, now time.Time) (domain.AccessToken, error) {
	return i.issue(email, userID.String(), now)
}

func (i *Issuer) issue(email, subject string, now time.Time) (domain.AccessToken, error) {
	if email == "" {
		return domain.AccessToken{}, &domain.ArgumentError{Param: "email", Reason: "must not be empty"}
	}
	if now.IsZero() {
		now = i.now()
	}
	// Claims carry whole seconds. Truncating first keeps ExpiresAt equal to
	// the exp claim and exactly one lifetime after iat.
	now = now.Truncate(time.Second)

	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(i.lifetime))
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  issuedAt,
			NotBefore: issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return domain.AccessToken{}, fmt.Errorf("signing token: %w", err)
	}

	return domain.AccessToken{
		AccessToken: signed,
		ExpiresIn:   i.minutes,
		ExpiresAt:   expiresAt.Time,
	}, nil
}
