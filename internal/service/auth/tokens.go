package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mamadbah2/henmanager/internal/domain/access"
)

// TokenConfig holds JWT signing settings.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Claims is the payload of an access token.
type Claims struct {
	jwt.RegisteredClaims
	Name        string   `json:"name"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permission,omitempty"`
}

// Tokens issues and validates HS256 access tokens.
type Tokens struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokens creates a token issuer.
func NewTokens(config TokenConfig) *Tokens {
	return &Tokens{config: config, now: time.Now}
}

// Issue signs a token for the given identity.
func (t *Tokens) Issue(userID, userName string, roles, permissions []string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.config.TTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.config.Issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{t.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name:        userName,
		Roles:       roles,
		Permissions: permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates a token and returns the actor it describes.
func (t *Tokens) Parse(tokenString string) (access.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.config.Secret), nil
	},
		jwt.WithIssuer(t.config.Issuer),
		jwt.WithAudience(t.config.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return access.Actor{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return access.Actor{}, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return access.Actor{}, errors.New("token has no subject")
	}
	return access.NewActor(claims.Subject, claims.Name, claims.Roles, claims.Permissions), nil
}
