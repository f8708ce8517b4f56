package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// DefaultIterations is the PBKDF2 iteration count for newly derived hashes.
const DefaultIterations = 100000

const saltLen = 16
const keyLen = 32

// DerivePassword hashes a password with a fresh random salt and returns
// the hash and salt hex-encoded along with the iteration count used.
func DerivePassword(password string) (hashHex, saltHex string, iterations int) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		// Without a random source there is no way to mint credentials safely.
		panic("auth: failed to read random salt: " + err.Error())
	}
	return hex.EncodeToString(DeriveWithSalt(password, salt, DefaultIterations)),
		hex.EncodeToString(salt),
		DefaultIterations
}

// DeriveWithSalt is the deterministic PBKDF2-HMAC-SHA256 core shared by
// derivation and verification.
func DeriveWithSalt(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, keyLen, sha256.New)
}

// VerifyPassword recomputes the derivation with the stored salt and
// iteration count and compares digests. Any decoding problem makes it
// return false rather than an error.
func VerifyPassword(storedHashHex, storedSaltHex string, iterations int, candidate string) bool {
	storedHash, err := hex.DecodeString(storedHashHex)
	if err != nil {
		return false
	}
	salt, err := hex.DecodeString(storedSaltHex)
	if err != nil {
		return false
	}
	if iterations <= 0 {
		return false
	}
	derived := DeriveWithSalt(candidate, salt, iterations)
	return hmac.Equal(storedHash, derived)
}
