// Package netsec implements the cryptography for private chats: session key
// generation and the authenticated encryption applied to every private
// message.
//
// The session key is generated once by the chat initiator and travels to the
// invitee hex-encoded inside the chat request control message, over the same
// channel the key will later protect.  That is an inherited protocol weakness:
// anything that can observe the control channel can read the key.
package netsec

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the session key length in bytes.
	KeySize = chacha20poly1305.KeySize

	// NonceSize is the per-message nonce length in bytes.
	NonceSize = chacha20poly1305.NonceSize
)

// ErrDecrypt is returned when a ciphertext fails authentication.
var ErrDecrypt = errors.New("netsec: message authentication failed")

// NewChatKey generates a fresh session key from the system entropy source.
func NewChatKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("netsec: key generation failed: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext under key with a fresh random nonce and returns the
// nonce and ciphertext separately, as they are carried in separate fields of
// the encrypted message.
func Seal(key, plaintext []byte) (nonce, ciphertext []byte, err error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, fmt.Errorf("netsec: bad session key: %w", err)
	}
	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("netsec: nonce generation failed: %w", err)
	}
	return nonce, aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open decrypts and authenticates ciphertext.  An authentication failure
// never yields plaintext.
func Open(key, nonce, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("netsec: bad session key: %w", err)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("netsec: bad nonce length %d", len(nonce))
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
