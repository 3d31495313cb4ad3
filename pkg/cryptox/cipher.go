package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// CipherKeySize is the AES-256 key length in bytes.
	CipherKeySize = 32

	// keyFiller pads short secrets up to the full key length. Changing this
	// invalidates every blob encrypted under a short secret.
	keyFiller = '0'
)

var (
	// ErrFormat reports a blob that does not look like "ivhex:cipherhex".
	ErrFormat = errors.New("cryptox: malformed cipher blob")

	// ErrDecrypt reports a blob that parsed but could not be decrypted,
	// typically a wrong key or corrupted ciphertext.
	ErrDecrypt = errors.New("cryptox: decryption failed")
)

// Cipher encrypts and decrypts UTF-8 text under AES-256-CBC with PKCS#7
// padding. The wire format is hex(iv) + ":" + hex(ciphertext), with a fresh
// random 16-byte IV per encryption.
type Cipher struct {
	key []byte
}

// NewCipher derives the AES-256 key from the configured secret: secrets
// shorter than 32 bytes are right-padded with '0', longer secrets are
// truncated. The raw bytes are used directly as the key so that blobs
// written by earlier deployments stay readable.
func NewCipher(secret string) *Cipher {
	key := make([]byte, CipherKeySize)
	for i := range key {
		key[i] = keyFiller
	}
	copy(key, secret)
	return &Cipher{key: key}
}

// Encrypt returns the encrypted wire form of plaintext. Two calls with the
// same plaintext produce different blobs because the IV is random per call.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate iv: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("cryptox: %w", err)
	}

	padded := padPKCS7([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. It splits on the first ":", so ciphertext hex
// containing no further structure is required on the right-hand side.
func (c *Cipher) Decrypt(blob string) (string, error) {
	ivHex, cipherHex, ok := strings.Cut(blob, ":")
	if !ok || ivHex == "" || cipherHex == "" {
		return "", ErrFormat
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad iv encoding", ErrFormat)
	}
	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding", ErrFormat)
	}

	if len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: iv must be %d bytes, got %d", ErrDecrypt, aes.BlockSize, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext not block-aligned", ErrDecrypt)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("cryptox: %w", err)
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	unpadded, err := unpadPKCS7(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

// IsEncrypted reports whether raw store content looks like a cipher blob
// rather than legacy plaintext JSON. The heuristic (contains ':' and does
// not start with '[') predates the encrypted format and must not change,
// or stores written before encryption was introduced become unreadable.
func IsEncrypted(content string) bool {
	return strings.Contains(content, ":") && !strings.HasPrefix(strings.TrimSpace(content), "[")
}

func padPKCS7(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func unpadPKCS7(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("%w: invalid padded length", ErrDecrypt)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
		}
	}
	return b[:len(b)-n], nil
}
