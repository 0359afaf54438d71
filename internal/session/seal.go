package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"waste-console/internal/store"
)

// sealVersion is prepended to every sealed blob and authenticated with it.
const sealVersion byte = 0x01

var hkdfInfo = []byte("waste-console.session.tokens.v1")

// Sealer encrypts store tokens at rest. The blob is bound to its session id,
// so a sealed value cannot be moved to another session row.
//
//	[version: 1] [nonce: 24] [ciphertext+tag]
type Sealer struct {
	key []byte
}

// NewSealer derives the sealing key from the server secret.
func NewSealer(secret string) (*Sealer, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 characters")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo), key); err != nil {
		return nil, errors.Wrap(err, "derive session key")
	}
	return &Sealer{key: key}, nil
}

func (s *Sealer) Seal(sessionID string, tokens store.Tokens) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, errors.Wrap(err, "create cipher")
	}
	plaintext, err := json.Marshal(tokens)
	if err != nil {
		return nil, errors.Wrap(err, "encode tokens")
	}

	out := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(plaintext)+chacha20poly1305.Overhead)
	out[0] = sealVersion
	if _, err := io.ReadFull(rand.Reader, out[1:]); err != nil {
		return nil, errors.Wrap(err, "generate nonce")
	}
	return aead.Seal(out, out[1:], plaintext, aad(sessionID)), nil
}

func (s *Sealer) Open(sessionID string, blob []byte) (store.Tokens, error) {
	var tokens store.Tokens
	if len(blob) < 1+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead || blob[0] != sealVersion {
		return tokens, errors.New("malformed sealed tokens")
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return tokens, errors.Wrap(err, "create cipher")
	}
	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	plaintext, err := aead.Open(nil, nonce, blob[1+chacha20poly1305.NonceSizeX:], aad(sessionID))
	if err != nil {
		return tokens, errors.Wrap(err, "open sealed tokens")
	}
	if err := json.Unmarshal(plaintext, &tokens); err != nil {
		return tokens, errors.Wrap(err, "decode tokens")
	}
	return tokens, nil
}

func aad(sessionID string) []byte {
	return append([]byte{sealVersion}, sessionID...)
}
