// Package idgen provides unique identifier generation.
package idgen

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// codeAlphabet matches the access-code format handed out to users.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultCodeLength is used when the caller does not pass a length.
const DefaultCodeLength = 6

type Generator struct{}

func InitGenerator() *Generator {
	return &Generator{}
}

// NewCode generates an uppercase-alphanumeric access code.
func (g *Generator) NewCode(length int) string {
	if length <= 0 {
		length = DefaultCodeLength
	}
	code := make([]byte, length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code)
}

// NewID generates an opaque unique identifier for videos, tasks and withdrawals.
func (g *Generator) NewID() string {
	return uuid.New().String()
}
