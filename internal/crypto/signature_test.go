package crypto

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCanonical(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)
	sig := id.Sign([]byte("canonical"))

	tests := []struct {
		name string
		sig  []byte
		want bool
	}{
		{name: "low S", sig: sig, want: true},
		{name: "high S", sig: highS(sig), want: false},
		{name: "empty", sig: nil, want: false},
		{name: "too short", sig: []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01}, want: false},
		{name: "wrong tag", sig: append([]byte{0x31}, sig[1:]...), want: false},
		{name: "wrong length", sig: append(append([]byte{}, sig...), 0x00), want: false},
		{name: "minimal", sig: mustHex(t, "3006020101020101"), want: true},
		{name: "zero R", sig: mustHex(t, "3006020100020101"), want: false},
		{name: "negative S", sig: mustHex(t, "3006020101020181"), want: false},
		{name: "padded R", sig: mustHex(t, "300702020001020101"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCanonical(tt.sig))
		})
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// highS returns sig with S replaced by G-S. Used to build malleated
// signatures in tests.
func highS(sig []byte) []byte {
	rBytes, rest, ok := parseDERInteger(sig[2:])
	if !ok {
		return nil
	}
	sBytes, _, ok := parseDERInteger(rest)
	if !ok {
		return nil
	}
	s := new(big.Int).Sub(secp256k1Order, new(big.Int).SetBytes(sBytes))
	return encodeDER(rBytes, s.Bytes())
}

func encodeDER(r, s []byte) []byte {
	if r[0]&0x80 != 0 {
		r = append([]byte{0}, r...)
	}
	if s[0]&0x80 != 0 {
		s = append([]byte{0}, s...)
	}
	out := []byte{0x30, byte(4 + len(r) + len(s)), 0x02, byte(len(r))}
	out = append(out, r...)
	out = append(out, 0x02, byte(len(s)))
	return append(out, s...)
}
