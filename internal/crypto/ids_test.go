package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcAccountID(t *testing.T) {
	tests := []struct {
		name      string
		publicKey string
		accountID string
	}{
		{
			name:      "Ed25519 public key",
			publicKey: "ED9434799226374926EDA3B54B1B461B4ABF7237962EAE18528FEA67595397FA32",
			accountID: "7f58b19358f8e497c8a9ded3e6db3bc23a13c1a5",
		},
		{
			name:      "Secp256k1 public key",
			publicKey: "0330E7FC9D56BB25D6893BA3F317AE5BCF33B3291BD63DB32654A313222F7FD020",
			accountID: "b5f762798a53d543a014caf8b297cff8f2f937e8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pubKey, err := hex.DecodeString(tt.publicKey)
			require.NoError(t, err)

			accountID := CalcAccountID(pubKey)
			assert.Equal(t, tt.accountID, accountID.String())
		})
	}
}

func TestParseAccountID(t *testing.T) {
	id, err := ParseAccountID("b5f762798a53d543a014caf8b297cff8f2f937e8")
	require.NoError(t, err)
	assert.Equal(t, byte(0xb5), id[0])
	assert.False(t, id.IsZero())

	same, err := ParseAccountID("0x" + id.String())
	require.NoError(t, err)
	assert.Equal(t, id, same)

	_, err = ParseAccountID("b5f7")
	assert.Error(t, err)
	_, err = ParseAccountID("not hex")
	assert.Error(t, err)

	assert.True(t, AccountID{}.IsZero())
}

func TestSha512Half(t *testing.T) {
	// SHA-512("abc") truncated to 256 bits
	want := "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a"

	got := Sha512Half([]byte("abc"))
	assert.Equal(t, want, hex.EncodeToString(got[:]))

	split := Sha512Half([]byte("a"), []byte("bc"))
	assert.Equal(t, got, split)
}
