package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// CodeGenerator returns a fresh short code. It does not check for collisions.
type CodeGenerator func() (string, error)

// GenerateCode returns 8 lowercase hex characters from crypto/rand.
func GenerateCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return hex.EncodeToString(b), nil
}

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidCode reports whether code can sit in a URL path segment unescaped.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}
