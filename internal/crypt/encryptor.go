// Package crypt implements the password-based content encryption used for
// protected posts.
//
// The payload format is the compatibility boundary with the client-side
// decryptor and must not change: PBKDF2-SHA256 with 100000 iterations derives
// a 32-byte key from the password and a random 16-byte salt; a random 12-byte
// nonce feeds AES-256-GCM; the ciphertext carries the GCM tag appended. The
// encoded payload is three standard-base64 segments joined by colons:
//
//	base64(salt):base64(nonce):base64(ciphertext+tag)
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KDF and cipher parameters shared with the client-side decryptor.
	Iterations = 100000
	KeySize    = 32
	SaltSize   = 16
	NonceSize  = 12
)

// Encryptor performs authenticated encryption of post bodies. The zero value
// is usable; the random source defaults to crypto/rand.
type Encryptor struct {
	rand io.Reader
}

// New returns an Encryptor drawing randomness from crypto/rand.
func New() *Encryptor {
	return &Encryptor{rand: rand.Reader}
}

// DeriveKey runs the PBKDF2 step on its own. Exposed so tests (and any future
// server-side decryption tooling) can reproduce the exact key schedule.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}

// Encrypt encrypts plaintext under a key derived from password and returns the
// encoded payload. Every call draws a fresh salt and nonce; reusing either
// would void the authentication guarantee.
func (e *Encryptor) Encrypt(plaintext, password string) (string, error) {
	rng := e.rand
	if rng == nil {
		rng = rand.Reader
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rng, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rng, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	block, err := aes.NewCipher(DeriveKey(password, salt))
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return "", fmt.Errorf("init gcm: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	enc := base64.StdEncoding
	return enc.EncodeToString(salt) + ":" + enc.EncodeToString(nonce) + ":" + enc.EncodeToString(sealed), nil
}
