package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the key length accepted by every cipher in this package.
const KeySize = 32

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// Envelope tags.
const (
	tagAESGCM   byte = 0x01
	tagChaCha20 byte = 0x02
)

var (
	// ErrInvalidKey is returned for keys that are not KeySize bytes.
	ErrInvalidKey = errors.New("adaptive: key must be 32 bytes")
	// ErrMalformed is returned when an envelope is truncated or carries an
	// unknown algorithm tag.
	ErrMalformed = errors.New("adaptive: malformed envelope")
)

// Cipher provides authenticated encryption.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Encrypt encrypts plaintext with additional data. The nonce is
	// prepended to the result.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	// Decrypt reverses Encrypt.
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)
}

// New creates a cipher for the host architecture.
func New(key []byte) (Cipher, error) {
	return NewWithType(key, Preferred())
}

// NewWithType creates a cipher of the specified type.
func NewWithType(key []byte, cipherType CipherType) (Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch cipherType {
	case CipherAESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case CipherChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("adaptive: unknown cipher type %q", cipherType)
	}
	if err != nil {
		return nil, err
	}
	return &aeadCipher{typ: cipherType, aead: aead}, nil
}

// Preferred returns the cipher type New would pick on this host.
func Preferred() CipherType {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return CipherAESGCM
	default:
		return CipherChaCha20
	}
}

type aeadCipher struct {
	typ  CipherType
	aead cipher.AEAD
}

func (c *aeadCipher) Type() CipherType { return c.typ }

func (c *aeadCipher) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(ciphertext) < ns+c.aead.Overhead() {
		return nil, ErrMalformed
	}
	return c.aead.Open(nil, ciphertext[:ns], ciphertext[ns:], additionalData)
}

// Seal encrypts plaintext with the preferred cipher and prefixes the
// algorithm tag.
func Seal(key, plaintext, additionalData []byte) ([]byte, error) {
	c, err := New(key)
	if err != nil {
		return nil, err
	}
	body, err := c.Encrypt(plaintext, additionalData)
	if err != nil {
		return nil, err
	}
	return append([]byte{tagFor(c.Type())}, body...), nil
}

// Open decrypts an envelope produced by Seal.
func Open(key, sealed, additionalData []byte) ([]byte, error) {
	if len(sealed) < 1 {
		return nil, ErrMalformed
	}
	var typ CipherType
	switch sealed[0] {
	case tagAESGCM:
		typ = CipherAESGCM
	case tagChaCha20:
		typ = CipherChaCha20
	default:
		return nil, ErrMalformed
	}
	c, err := NewWithType(key, typ)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(sealed[1:], additionalData)
}

func tagFor(t CipherType) byte {
	if t == CipherAESGCM {
		return tagAESGCM
	}
	return tagChaCha20
}
