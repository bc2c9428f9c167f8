package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	"github.com/golang-jwt/jwt/v4"
)

// Claims is what the billing API needs to know about the caller
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// Provider validates bearer tokens issued by the dashboard's auth service
type Provider interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

type hmacProvider struct {
	secret []byte
}

// NewProvider validates HS256 tokens signed with the shared auth secret
func NewProvider(cfg *config.Configuration) Provider {
	return &hmacProvider{secret: []byte(cfg.Auth.Secret)}
}

func (p *hmacProvider) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token parse error: %w", err)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("token missing user ID")
	}

	result := &Claims{UserID: userID}
	if email, ok := claims["email"].(string); ok {
		result.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		result.Role = role
	}
	return result, nil
}

// HashAPIKey creates a SHA-256 hash of the API key
func HashAPIKey(key string) string {
	hasher := sha256.New()
	hasher.Write([]byte(key))
	return hex.EncodeToString(hasher.Sum(nil))
}

// ValidateAPIKey compares a presented key with the configured service key.
// The configured value is the hex SHA-256 of the key.
func ValidateAPIKey(cfg *config.Configuration, key string) bool {
	if cfg.Auth.APIKey == "" || key == "" {
		return false
	}
	return SecureCompare(HashAPIKey(key), cfg.Auth.APIKey)
}

// SecureCompare compares two secrets in constant time
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
