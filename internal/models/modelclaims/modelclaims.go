// Package modelclaims provides types for token authorization.
package modelclaims

import "github.com/golang-jwt/jwt"

type SessionClaims struct {
	Username string `json:"username"`
	jwt.StandardClaims
}
