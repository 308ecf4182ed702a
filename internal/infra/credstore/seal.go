package credstore

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"storefront/internal/pkg/errs"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var ErrUnsealFailed = errs.New("stored credential could not be opened")

// Sealer encrypts and authenticates values with a single symmetric key.
// Sealed output is the random nonce followed by the secretbox.
type Sealer struct {
	key [keySize]byte
}

func NewSealer(hexKey string) (*Sealer, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errs.Wrap(err, "seal key must be hex encoded")
	}
	if len(raw) != keySize {
		return nil, errs.Newf("seal key must be %d bytes, got %d", keySize, len(raw))
	}
	s := &Sealer{}
	copy(s.key[:], raw)
	return s, nil
}

func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, errs.Wrap(err, "failed to read nonce")
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrUnsealFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	out, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrUnsealFailed
	}
	return out, nil
}
