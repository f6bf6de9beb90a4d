package protocol

import (
	"crypto/hmac"
	"crypto/sha256"
)

// LoginDigest computes HMAC-SHA256(key = SHA256(password), msg = nonce), the
// mutual-authentication primitive used for both directions of the
// challenge/login exchange.
func LoginDigest(password []byte, nonce []byte) []byte {
	key := sha256.Sum256(password)
	mac := hmac.New(sha256.New, key[:])
	mac.Write(nonce)
	return mac.Sum(nil)
}
