// Package secretary provides methods for credentials hashing and token authorization.
package secretary

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexaplatform/nexa-rewards/internal/config"
	"github.com/nexaplatform/nexa-rewards/internal/models/modelclaims"
)

const tokenTTL = 30 * time.Minute

// Secretary defines object structure and its attributes.
type Secretary struct {
	key []byte
}

// NewSecretaryService initializes a secretary service with hashing and token functionality.
func NewSecretaryService(c *config.SecretConfig) (*Secretary, error) {
	if c.SecretKey == "" {
		return nil, errors.New("empty secret key was found")
	}
	return &Secretary{key: []byte(c.SecretKey)}, nil
}

// NewToken issues a signed session token for a username.
func (s *Secretary) NewToken(username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &modelclaims.SessionClaims{
		Username: username,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(tokenTTL).Unix(),
		},
	})
	return token.SignedString(s.key)
}

// ValidateToken retrieves the username from a session token.
func (s *Secretary) ValidateToken(accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &modelclaims.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return "", err
	}
	if claims, ok := token.Claims.(*modelclaims.SessionClaims); ok && token.Valid {
		return claims.Username, nil
	}
	return "", errors.New("invalid access token")
}

// HashPassword hashes a plaintext password for storage.
func (s *Secretary) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash against a plaintext password.
func (s *Secretary) CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
