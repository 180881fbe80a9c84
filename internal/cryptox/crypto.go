// Package cryptox holds the hash and cipher primitives used to protect unit
// secrets: a deterministic sha256 hash for password verification and key
// derivation, and AES-256-GCM for authenticated encryption.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/saverpwd/internal/common"
)

const (
	KeySize   = 32 // AES-256
	NonceSize = 12 // GCM standard nonce
	TagSize   = 16 // GCM authentication tag
)

// Hash returns the sha256 digest of data. There is no salt: equal inputs always
// produce equal digests, which lets the key be re-derived from credentials alone.
func Hash(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// PasswordHash is the verifier stored for a user: hex(sha256(username + password)).
func PasswordHash(username, password string) string {
	return hex.EncodeToString(Hash([]byte(username + password)))
}

// CheckPasswordHash compares a stored verifier with the one computed from the
// given credentials in constant time.
func CheckPasswordHash(stored, username, password string) bool {
	candidate := PasswordHash(username, password)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// DeriveKey returns the symmetric key for a user's secrets: sha256(username + password).
func DeriveKey(username, password string) []byte {
	return Hash([]byte(username + password))
}

// Encrypt seals plaintext with AES-GCM under key.
//
// The key must be KeySize bytes. A new random NonceSize-byte nonce is generated
// for every call; ciphertext and nonce are returned separately and both must
// be stored to decrypt later.
//
// Example:
//
//	key := cryptox.DeriveKey("alice", "pw1")
//	ct, nonce, err := cryptox.Encrypt(key, []byte("s3cr3t"))
//	if err != nil {
//	    return err
//	}
func Encrypt(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext = aead.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext produced by Encrypt. A wrong key, a tampered
// ciphertext or a malformed nonce all yield common.ErrDecryption.
func Decrypt(key, ciphertext, nonce []byte) ([]byte, error) {
	if len(nonce) != NonceSize || len(ciphertext) < TagSize {
		return nil, common.ErrDecryption
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryption
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size %d, want %d", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

// Wipe overwrites b with zeros. It is safe to call with nil.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
