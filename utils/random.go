package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateToken returns n random bytes as lowercase hex, suitable as a bearer
// credential.
func GenerateToken(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return hex.EncodeToString(byt), nil
}

// GenerateDigits returns length uniformly random decimal digits. The leading
// digit is never zero so the width stays fixed when parsed as a number.
func GenerateDigits(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		lo, n := 0, 10
		if i == 0 {
			lo, n = 1, 9
		}
		d, err := randomBelow(n)
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + lo + d)
	}
	return string(code), nil
}

// randomBelow returns a uniform value in [0, n) for 0 < n <= 256, rejecting
// bytes past the largest multiple of n.
func randomBelow(n int) (int, error) {
	limit := 256 - 256%n
	var b [1]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, err
		}
		if int(b[0]) < limit {
			return int(b[0]) % n, nil
		}
	}
}
