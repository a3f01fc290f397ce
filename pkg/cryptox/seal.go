package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ivSize is the AES block size; CBC requires a full-block IV.
const ivSize = aes.BlockSize

// ErrInvalidPayload reports a transport token that could not be opened:
// wrong structure, bad IV, undecodable parts, or a ciphertext that does not
// decrypt cleanly under the given secret.
var ErrInvalidPayload = errors.New("cryptox: invalid transport payload")

// deriveKey turns an arbitrary nonempty secret string into a 32-byte AES-256
// key. Hashing means callers never have to worry about key length.
func deriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("cryptox: secret must be a non-empty string")
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:], nil
}

// Seal encrypts plaintext with AES-256-CBC under a key derived from secret.
// A fresh random IV is generated per call, so sealing the same plaintext twice
// yields different outputs. The result is base64(iv) + ":" + base64(ciphertext).
func Seal(plaintext, secret string) (string, error) {
	key, err := deriveKey(secret)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cryptox: failed to create cipher: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate iv: %w", err)
	}

	padded := padPKCS7([]byte(plaintext))
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open reverses Seal. Every structural or cryptographic failure is collapsed
// into ErrInvalidPayload so callers cannot distinguish a tampered token from a
// wrong secret.
func Open(payload, secret string) (string, error) {
	key, err := deriveKey(secret)
	if err != nil {
		return "", err
	}

	ivPart, ctPart, ok := strings.Cut(payload, ":")
	if !ok {
		return "", ErrInvalidPayload
	}

	iv, err := base64.StdEncoding.DecodeString(ivPart)
	if err != nil || len(iv) != ivSize {
		return "", ErrInvalidPayload
	}
	ciphertext, err := base64.StdEncoding.DecodeString(ctPart)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", ErrInvalidPayload
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cryptox: failed to create cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, ok := unpadPKCS7(plaintext)
	if !ok {
		return "", ErrInvalidPayload
	}
	return string(unpadded), nil
}

// padPKCS7 appends PKCS#7 padding up to the next block boundary. A full block
// of padding is added when the input is already block-aligned.
func padPKCS7(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// unpadPKCS7 validates and strips PKCS#7 padding in constant time over the
// padding bytes.
func unpadPKCS7(data []byte) ([]byte, bool) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, false
	}
	valid := 1
	for _, b := range data[len(data)-n:] {
		valid &= subtle.ConstantTimeByteEq(b, byte(n))
	}
	if valid != 1 {
		return nil, false
	}
	return data[:len(data)-n], true
}
