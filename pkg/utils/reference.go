package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const base36Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomBase36(n int) string {
	var sb strings.Builder
	max := big.NewInt(int64(len(base36Chars)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(err)
		}
		sb.WriteByte(base36Chars[idx.Int64()])
	}
	return sb.String()
}

// GenerateBookingReference returns a short human-readable booking code.
// Uniqueness is enforced by the DB index; a collision fails the create.
func GenerateBookingReference(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, randomBase36(6))
}

// GenerateTransactionReference returns a gateway-correlatable reference.
func GenerateTransactionReference(prefix string) string {
	timestamp := strings.ToUpper(big.NewInt(time.Now().UnixMilli()).Text(36))
	return fmt.Sprintf("%s-%s-%s", prefix, timestamp, randomBase36(6))
}

// GeneratePaymentToken returns a 64-character opaque token (256 random bits).
func GeneratePaymentToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
