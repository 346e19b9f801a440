package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

var (
	ErrMissingCredential  = errors.New("missing credential")
	ErrExpiredCredential  = errors.New("expired credential")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrVerificationFailed = errors.New("credential verification failed")
)

// Claims is the payload of an access token. Older tokens carry the user id in _id.
type Claims struct {
	UserID   string `json:"userId,omitempty"`
	LegacyID string `json:"_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) subject() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.LegacyID
}

type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify checks signature and expiry of an HS256 token and returns the identity it carries.
func (v *Verifier) Verify(token string) (domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Identity{}, ErrMissingCredential
	}
	if len(v.secret) == 0 {
		return domain.Identity{}, fmt.Errorf("%w: signing secret is not configured", ErrVerificationFailed)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrExpiredCredential
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !parsed.Valid || claims.subject() == "" {
		return domain.Identity{}, ErrInvalidCredential
	}

	return domain.Identity{
		ID:    claims.subject(),
		Name:  claims.Name,
		Email: claims.Email,
	}, nil
}

// Issue signs a token for identity. Production tokens are minted by the account
// service; Issue serves local runs and tests.
func (v *Verifier) Issue(identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: identity.ID,
		Email:  identity.Email,
		Name:   identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    v.issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// TokenFromRequest reads the access token from the cookie, then from a Bearer header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
