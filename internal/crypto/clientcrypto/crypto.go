// Package clientcrypto seals the local state blob under a passphrase.
//
// The passphrase yields a KEK (Argon2id); the KEK wraps a random data key; the
// state is sealed with a subkey derived from the data key. Changing the
// passphrase only rewraps the data key.
package clientcrypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Params
const (
	KeyLen  = 32
	SaltLen = 16

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
)

// ErrShortCiphertext is returned when a sealed value cannot hold a nonce.
var ErrShortCiphertext = errors.New("ciphertext too short")

func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// DeriveKEK derives a key-encryption key from passphrase and salt using Argon2id.
func DeriveKEK(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, KeyLen)
}

// NewDataKey returns a random data key.
func NewDataKey() ([]byte, error) { return Rand(KeyLen) }

// WrapKey encrypts a data key with the KEK.
func WrapKey(kek, key []byte) ([]byte, error) {
	return Seal(kek, nil, key)
}

// UnwrapKey decrypts a wrapped data key.
func UnwrapKey(kek, wrapped []byte) ([]byte, error) {
	return Open(kek, nil, wrapped)
}

// DeriveSubkey derives a purpose-bound key via HKDF-SHA256 with info as label.
func DeriveSubkey(key []byte, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, key, nil, []byte(info))
	out := make([]byte, KeyLen)
	_, err := r.Read(out)
	return out, err
}

// Seal encrypts plaintext with XChaCha20-Poly1305; output is nonce||ciphertext.
func Seal(key, aad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce, err := Rand(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, aad)...)
	return out, nil
}

// Open reverses Seal. aad must match.
func Open(key, aad, sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, ErrShortCiphertext
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := sealed[:chacha20poly1305.NonceSizeX]
	ct := sealed[chacha20poly1305.NonceSizeX:]
	return aead.Open(nil, nonce, ct, aad)
}
