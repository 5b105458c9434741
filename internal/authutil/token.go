package authutil

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const tokenBytes = 48

// GenerateToken generates a random URL-safe token of 64 characters.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
