package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateBookingReferenceFormat(t *testing.T) {
	ref := GenerateBookingReference("LUF")

	assert.True(t, strings.HasPrefix(ref, "LUF-"))
	assert.Len(t, ref, len("LUF-")+6)
}

func TestGenerateBookingReferenceUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := GenerateBookingReference("LUF")
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestGenerateTransactionReference(t *testing.T) {
	ref := GenerateTransactionReference("PAYSTACK")

	assert.True(t, strings.HasPrefix(ref, "PAYSTACK-"))
	parts := strings.Split(ref, "-")
	assert.Len(t, parts, 3)
}

func TestGeneratePaymentToken(t *testing.T) {
	token := GeneratePaymentToken()

	assert.Len(t, token, 64)
	for _, r := range token {
		assert.Contains(t, "0123456789abcdef", string(r))
	}

	assert.NotEqual(t, token, GeneratePaymentToken())
}
