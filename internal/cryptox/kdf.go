package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	KDFSHA256   = "sha256"
	KDFArgon2id = "argon2id"
)

var (
	ErrUnknownKDF         = errors.New("unknown key derivation function")
	ErrInvalidArgon2Param = errors.New("invalid argon2 parameters")
)

// KDF turns a user's credentials into the key protecting that user's secrets.
// Implementations must be deterministic: the same credentials always give the
// same key, since no per-user salt is stored.
type KDF interface {
	Name() string
	DeriveKey(username, password string) ([]byte, error)
}

// NewKDF returns the KDF registered under name. An empty name selects sha256.
func NewKDF(name string) (KDF, error) {
	switch name {
	case "", KDFSHA256:
		return SHA256KDF{}, nil
	case KDFArgon2id:
		return NewArgon2KDF(DefaultArgon2Params())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKDF, name)
	}
}

// SHA256KDF is the default scheme: key = sha256(username + password).
type SHA256KDF struct{}

func (SHA256KDF) Name() string { return KDFSHA256 }

func (SHA256KDF) DeriveKey(username, password string) ([]byte, error) {
	return DeriveKey(username, password), nil
}

type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4}
}

func (p Argon2Params) Validate() error {
	switch {
	case p.Time == 0:
		return fmt.Errorf("%w: time must be > 0", ErrInvalidArgon2Param)
	case p.Memory < 8*uint32(p.Threads):
		return fmt.Errorf("%w: memory must be >= 8*threads KiB", ErrInvalidArgon2Param)
	case p.Threads == 0:
		return fmt.Errorf("%w: threads must be > 0", ErrInvalidArgon2Param)
	default:
		return nil
	}
}

// Argon2KDF derives keys with argon2id. The salt is computed from the username,
// so a username change yields a different key just like with SHA256KDF.
type Argon2KDF struct {
	params Argon2Params
}

func NewArgon2KDF(p Argon2Params) (*Argon2KDF, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Argon2KDF{params: p}, nil
}

func (k *Argon2KDF) Name() string { return KDFArgon2id }

func (k *Argon2KDF) DeriveKey(username, password string) ([]byte, error) {
	salt := Hash([]byte("saverpwd/kdf/" + username))
	return argon2.IDKey([]byte(username+password), salt, k.params.Time, k.params.Memory, k.params.Threads, KeySize), nil
}
