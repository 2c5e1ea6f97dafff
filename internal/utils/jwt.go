package utils // package utils provides token encoding, password hashing and id helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/reading-list/internal/config"
	"github.com/iliyamo/reading-list/internal/model"
)

// ErrInvalidToken wraps every Decode failure.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the claim set shared by access and refresh tokens. Role is only
// set on access tokens.
type Claims struct {
	Role   string `json:"role,omitempty"`
	Type   string `json:"type"`
	Device string `json:"device"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies tokens with a shared HMAC secret.
type TokenCodec struct {
	secret     []byte
	issuer     string
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec builds a codec from cfg. Only HMAC algorithms are accepted.
func NewTokenCodec(cfg config.JWTConfig) (*TokenCodec, error) {
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	return &TokenCodec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of c reading time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *TokenCodec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess builds and signs an access token for subject on device.
func (c *TokenCodec) IssueAccess(subject, role, device string) (string, error) {
	claims := c.build(subject, model.TokenTypeAccess, device, c.accessTTL)
	claims.Role = role
	return c.Encode(claims)
}

// BuildRefreshClaims returns unsigned refresh claims so the caller can
// persist the jti before handing out the token.
func (c *TokenCodec) BuildRefreshClaims(subject, device string) *Claims {
	return c.build(subject, model.TokenTypeRefresh, device, c.refreshTTL)
}

func (c *TokenCodec) build(subject, typ, device string, ttl time.Duration) *Claims {
	now := c.now()
	return &Claims{
		Type:   typ,
		Device: device,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			ID:        NewID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// Encode signs claims.
func (c *TokenCodec) Encode(claims *Claims) (string, error) {
	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// Decode verifies signature, algorithm, issuer and expiry, and requires
// exp, iat, sub, iss, type and jti to be present. The token type is not
// checked here.
func (c *TokenCodec) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	switch {
	case claims.IssuedAt == nil:
		return nil, fmt.Errorf("%w: missing iat", ErrInvalidToken)
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	case claims.Type == "":
		return nil, fmt.Errorf("%w: missing type", ErrInvalidToken)
	case claims.ID == "":
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}
	return claims, nil
}
