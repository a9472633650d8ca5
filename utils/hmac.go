package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

func hmac256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// HmacSHA256Hex returns the lowercase hex HMAC-SHA256 of message under key.
func HmacSHA256Hex(key, message string) string {
	return hex.EncodeToString(hmac256([]byte(key), []byte(message)))
}

// EqualHex compares two hex digests in constant time.
func EqualHex(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
