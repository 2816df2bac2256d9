// File: internal/infra/security/sealer.go
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	CipherAESGCM            = "aes-gcm"
	CipherXChaCha20Poly1305 = "xchacha20poly1305"
)

// Sealer encrypts and authenticates whole blobs. Open fails on a wrong key or
// on any tampering.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// aeadSealer wraps any AEAD. Format: nonce || ciphertext, with a random nonce
// per Seal.
type aeadSealer struct {
	aead cipher.AEAD
}

// NewSealer picks the AEAD by name. An empty name means AES-GCM.
func NewSealer(name string, key []byte) (Sealer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CipherAESGCM:
		return NewAESGCMSealer(key)
	case CipherXChaCha20Poly1305:
		return NewXChaChaSealer(key)
	default:
		return nil, fmt.Errorf("unknown cipher %q", name)
	}
}

// NewAESGCMSealer needs a 16, 24 or 32 byte key (AES-128/192/256).
func NewAESGCMSealer(key []byte) (Sealer, error) {
	n := len(key)
	if n != 16 && n != 24 && n != 32 {
		return nil, fmt.Errorf("encryption key must be 16, 24, or 32 bytes; got %d", n)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &aeadSealer{aead: gcm}, nil
}

// NewXChaChaSealer needs a 32 byte key.
func NewXChaChaSealer(key []byte) (Sealer, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305.NewX: %w", err)
	}
	return &aeadSealer{aead: aead}, nil
}

func (s *aeadSealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("rand nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *aeadSealer) Open(ciphertext []byte) ([]byte, error) {
	ns := s.aead.NonceSize()
	if len(ciphertext) < ns+s.aead.Overhead() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ct := ciphertext[:ns], ciphertext[ns:]
	pt, err := s.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("aead open: %w", err)
	}
	return pt, nil
}

// LoadKeyFile reads raw key bytes. The file content is the key, byte for byte.
func LoadKeyFile(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("key file %s is empty", path)
	}
	return key, nil
}

// GenerateKey returns n random bytes suitable for a key file.
func GenerateKey(n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("rand key: %w", err)
	}
	return key, nil
}
