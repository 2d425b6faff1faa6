// Package auth hashes passwords and issues and verifies the bearer tokens
// that guard the per-user API.
package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/vjranagit/graphcalc/pkg/types"
)

const issuer = "graphcalc"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingToken       = errors.New("missing bearer token")
	ErrRevoked            = errors.New("token has been revoked")
)

// Config holds token and hashing parameters
type Config struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
}

// Claims are the JWT claims carried by an access token. StandardClaims.Id
// identifies the token for revocation, Subject is the user ID.
type Claims struct {
	Username string `json:"username"`
	jwt.StandardClaims
}

// UserID returns the subject of the token
func (c *Claims) UserID() string { return c.Subject }

// Expiry returns when the token stops being valid
func (c *Claims) Expiry() time.Time { return time.Unix(c.ExpiresAt, 0) }

// Authenticator issues and verifies tokens
type Authenticator struct {
	cfg Config
	now func() time.Time
}

// New creates an Authenticator
func New(cfg Config) *Authenticator {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Authenticator{cfg: cfg, now: time.Now}
}

// HashPassword returns the bcrypt hash of password
func (a *Authenticator) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cfg.BcryptCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

// CheckPassword compares password against a stored hash
func (a *Authenticator) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Issue signs a new access token for user
func (a *Authenticator) Issue(user *types.User) (string, *Claims, error) {
	now := a.now()
	claims := &Claims{
		Username: user.Username,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(a.cfg.TokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.cfg.Secret)
	if err != nil {
		return "", nil, errors.Wrap(err, "sign token")
	}
	return signed, claims, nil
}

// Verify checks the signature and expiry of a token and returns its claims
func (a *Authenticator) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.cfg.Secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if !token.Valid || claims.Id == "" || claims.Subject == "" || claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}
