package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/crypto/ripemd160"
)

// AccountIDSize is the size of an account ID in bytes.
const AccountIDSize = 20

// AccountID identifies the owner of rebases and share handles.
type AccountID [AccountIDSize]byte

// CalcAccountID computes the account ID of a public key as RIPEMD160(SHA256(publicKey)).
// The whole serialized key, prefix included, is hashed.
func CalcAccountID(publicKey []byte) AccountID {
	sha256Hash := sha256.Sum256(publicKey)

	h := ripemd160.New()
	h.Write(sha256Hash[:])

	var id AccountID
	copy(id[:], h.Sum(nil))
	return id
}

// ParseAccountID decodes a 40 character hex account ID.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return id, fmt.Errorf("invalid account id %q: %w", s, err)
	}
	if len(b) != AccountIDSize {
		return id, fmt.Errorf("invalid account id %q: want %d bytes, got %d", s, AccountIDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// IsZero reports whether the ID is all zeros.
func (id AccountID) IsZero() bool {
	return id == AccountID{}
}

func (id AccountID) String() string {
	return hex.EncodeToString(id[:])
}
