package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

const otpSpace = 1000000

// GenerateOTP returns a uniformly distributed, zero-padded 6-digit
// code. Rejection sampling avoids modulo bias.
func GenerateOTP() (string, error) {
	const limit = (1 << 32) / otpSpace * otpSpace
	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		n := binary.BigEndian.Uint32(buf[:])
		if n < limit {
			return fmt.Sprintf("%06d", n%otpSpace), nil
		}
	}
}

// HashOTP is a fast one-way transform for at-rest protection only; the
// code space is 10^6, so guessing resistance comes from expiry and
// call-site rate limiting, not from this hash.
func HashOTP(code string) []byte {
	sum := sha256.Sum256([]byte(code))
	return sum[:]
}
