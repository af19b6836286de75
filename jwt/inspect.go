package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned for strings that are not a three-part JWT with
	// a JSON claims segment.
	ErrMalformed = errors.New("malformed access token")
	// ErrNoExpiry is returned by Claims.Expired when the token carries no exp.
	ErrNoExpiry = errors.New("access token has no expiry")
)

// TokenTypeAccess is the token_type claim the API puts on access tokens.
const TokenTypeAccess = "access"

// Claims is the subset of the API's token claims the client looks at.
type Claims struct {
	UserID    string
	TokenType string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type wireClaims struct {
	UserID    any    `json:"user_id,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes token's claims without checking its signature.
func Inspect(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" || strings.Count(token, ".") != 2 {
		return nil, ErrMalformed
	}

	var wc wireClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &wc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	c := &Claims{
		UserID:    userID(wc.UserID),
		TokenType: wc.TokenType,
		ID:        wc.ID,
	}
	if wc.IssuedAt != nil {
		c.IssuedAt = wc.IssuedAt.Time
	}
	if wc.ExpiresAt != nil {
		c.ExpiresAt = wc.ExpiresAt.Time
	}
	return c, nil
}

// Expired reports whether the token is past its expiry at now, treating it as
// expired leeway early.
func (c *Claims) Expired(now time.Time, leeway time.Duration) (bool, error) {
	if c == nil || c.ExpiresAt.IsZero() {
		return false, ErrNoExpiry
	}
	return !now.Add(leeway).Before(c.ExpiresAt), nil
}

// user_id is an integer primary key on the API side but some deployments
// configure it as a string claim.
func userID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	default:
		return fmt.Sprint(id)
	}
}
