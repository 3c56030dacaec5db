package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"

	custerror "github.com/vacs-platform/streamview/internal/error"
)

const keySize = 32

// PadKey derives a fixed 32-byte AES key from arbitrary key material: shorter
// keys are right-padded with zero bytes, longer ones truncated. This is the
// one key-derivation rule shared with the platform's other clients.
func PadKey(key []byte) []byte {
	padded := make([]byte, keySize)
	copy(padded, key)
	return padded
}

// Encrypt seals plaintext with AES-256-GCM and returns base64(nonce || ciphertext).
func Encrypt(key []byte, plaintext []byte) (string, error) {
	block, err := aes.NewCipher(PadKey(key))
	if err != nil {
		return "", custerror.FormatInternalError("secrets.Encrypt: cipher err = %s", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", custerror.FormatInternalError("secrets.Encrypt: gcm err = %s", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", custerror.FormatInternalError("secrets.Encrypt: nonce err = %s", err)
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a payload produced by Encrypt (or by the configuration API,
// which uses the same construction for stream access tokens).
func Decrypt(key []byte, payload string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, custerror.FormatInvalidArgument("secrets.Decrypt: payload is not base64: %s", err)
	}
	block, err := aes.NewCipher(PadKey(key))
	if err != nil {
		return nil, custerror.FormatInternalError("secrets.Decrypt: cipher err = %s", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, custerror.FormatInternalError("secrets.Decrypt: gcm err = %s", err)
	}
	if len(raw) < gcm.NonceSize() {
		return nil, custerror.FormatInvalidArgument("secrets.Decrypt: payload shorter than nonce")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, custerror.FormatInvalidArgument("secrets.Decrypt: open err = %s", err)
	}
	return plaintext, nil
}
