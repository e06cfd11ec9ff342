// Package secretary provides methods for credentials hashing and token authorization.
package secretary

// Secretary defines a set of methods for types implementing Secretary.
type Secretary interface {
	NewToken(username string) (string, error)
	ValidateToken(accessToken string) (string, error)
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) error
}
