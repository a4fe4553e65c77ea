package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"

	"github.com/google/uuid"
)

// GenerateOrderNo generates the public order number (UUID v4).
func GenerateOrderNo() string {
	return uuid.New().String()
}

// RandomHex generates a random hex string of n bytes.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// RandomCode generates a random alphanumeric code of given length.
// Ambiguous characters (0/O, 1/l/I) are excluded.
func RandomCode(length int) string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	b := make([]byte, length)
	for i := range b {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		b[i] = charset[n.Int64()]
	}
	return string(b)
}

// GenerateUsername creates a username for issued IPTV accounts.
func GenerateUsername(prefix string) string {
	code := RandomCode(6)
	if prefix != "" {
		return prefix + "_" + code
	}
	return "user_" + code
}
