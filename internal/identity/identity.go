package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Key is a 32-byte identity key. Profile owners, admin signers and derived
// profile addresses all share this representation. The wire and storage
// encoding is lowercase hex.
type Key [32]byte

// profileNamespace is the fixed tag mixed into profile address derivation.
// Changing it would relocate every stored profile.
const profileNamespace = "user_profile"

var ErrInvalidKey = errors.New("identity: invalid key")

// ParseKey decodes a 64-character hex string into a Key.
func ParseKey(s string) (Key, error) {
	var k Key
	s = strings.TrimSpace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(b) != len(k) {
		return Key{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(b), len(k))
	}
	copy(k[:], b)
	return k, nil
}

// GenerateKey returns a random Key. Used for dev tooling and tests; real
// owner keys come from the callers' wallets.
func GenerateKey() (Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return Key{}, err
	}
	return k, nil
}

func (k Key) String() string { return hex.EncodeToString(k[:]) }

func (k Key) IsZero() bool { return k == Key{} }

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// DeriveProfileAddress maps an owner key to the storage address of its
// profile: sha256 over the namespace tag followed by the owner key bytes.
// Deterministic, so any caller can locate a profile from the owner alone.
func DeriveProfileAddress(owner Key) Key {
	h := sha256.New()
	h.Write([]byte(profileNamespace))
	h.Write(owner[:])
	var addr Key
	copy(addr[:], h.Sum(nil))
	return addr
}
