package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// SeedSize is the size of an identity seed in bytes.
const SeedSize = 16

var (
	// ErrInvalidSeed is returned for seeds of the wrong size.
	ErrInvalidSeed = errors.New("invalid seed")
	// ErrInvalidPrivateKey is returned when the private key is invalid.
	ErrInvalidPrivateKey = errors.New("invalid private key")
)

// Identity is a secp256k1 keypair. Its account ID owns registry objects and
// its signatures authenticate requests.
type Identity struct {
	privateKey *btcec.PrivateKey
	publicKey  *btcec.PublicKey
}

// NewIdentity creates a new random identity.
func NewIdentity() (*Identity, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return &Identity{privateKey: privateKey, publicKey: privateKey.PubKey()}, nil
}

// NewIdentityFromSeed derives an identity from a 16-byte seed.
func NewIdentityFromSeed(seed []byte) (*Identity, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSeed, SeedSize, len(seed))
	}

	key := Sha512Half(seed)
	privateKey, _ := btcec.PrivKeyFromBytes(key[:])
	if privateKey.Key.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	return &Identity{privateKey: privateKey, publicKey: privateKey.PubKey()}, nil
}

// ParseSeed decodes a hex seed.
func ParseSeed(s string) ([]byte, error) {
	seed, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSeed, SeedSize, len(seed))
	}
	return seed, nil
}

// GenerateSeed returns a random seed.
func GenerateSeed() ([]byte, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to generate random seed: %w", err)
	}
	return seed, nil
}

// Sign signs SHA-512Half(message) and returns a DER signature.
func (i *Identity) Sign(message []byte) []byte {
	hash := Sha512Half(message)
	return ecdsa.Sign(i.privateKey, hash[:]).Serialize()
}

// PublicKey returns the compressed public key.
func (i *Identity) PublicKey() []byte {
	return i.publicKey.SerializeCompressed()
}

// AccountID returns the account ID of the public key.
func (i *Identity) AccountID() AccountID {
	return CalcAccountID(i.PublicKey())
}

// Verify checks a canonical DER signature over SHA-512Half(message) made by publicKey.
func Verify(publicKey, message, signature []byte) bool {
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	if !IsCanonical(signature) {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	hash := Sha512Half(message)
	return sig.Verify(hash[:], pub)
}
