package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yoockh/jobboard/internal/models"
)

var (
	ErrNoToken      = errors.New("missing access token")
	ErrInvalidToken = errors.New("invalid access token")
	ErrTokenExpired = errors.New("access token expired")
)

type supabaseClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Role         string         `json:"role"` // "authenticated" / "anon"
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// Claims is what the app needs out of a verified access token. Role is only a
// hint; Gateway.GetSession replaces it with the role stored on the profile.
type Claims struct {
	UserID    string
	Email     string
	Role      models.Role
	ExpiresAt time.Time
}

func (c *Claims) User() *models.User {
	return &models.User{ID: c.UserID, Email: c.Email, Role: c.Role}
}

// Verifier checks Supabase access tokens signed with the project JWT secret.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewVerifier(secret, issuer, audience string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, audience: audience}
}

func (v *Verifier) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrNoToken
	}
	if len(v.secret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}

	claims := &supabaseClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil || tok == nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, ErrInvalidToken
	}
	if v.audience != "" && !slices.Contains(claims.Audience, v.audience) {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	out := &Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   roleFromMetadata(claims.AppMetadata, claims.UserMetadata),
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
