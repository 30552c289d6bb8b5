package compression

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"lz4", "none"}, Available())
	assert.True(t, IsAvailable("lz4"))
	assert.False(t, IsAvailable("zstd"))

	_, err := Get("zstd")
	assert.Error(t, err)
	_, err = ByTag(200)
	assert.Error(t, err)

	c, err := ByTag(1)
	require.NoError(t, err)
	assert.Equal(t, "lz4", c.Name())
}

func TestRoundTrip(t *testing.T) {
	random := make([]byte, 512)
	rand.New(rand.NewSource(1)).Read(random)

	inputs := map[string][]byte{
		"empty":      {},
		"short":      []byte("rebase"),
		"repetitive": bytes.Repeat([]byte("elastic base "), 200),
		"random":     random,
	}

	for _, name := range Available() {
		c, err := Get(name)
		require.NoError(t, err)

		for label, data := range inputs {
			t.Run(name+"/"+label, func(t *testing.T) {
				encoded, err := Encode(c, data)
				require.NoError(t, err)

				decoded, err := Decode(encoded)
				require.NoError(t, err)
				assert.Equal(t, data, decoded)
			})
		}
	}
}

func TestLZ4Shrinks(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 4096)
	c := &LZ4Compressor{}

	encoded, err := Encode(c, data)
	require.NoError(t, err)
	assert.Equal(t, c.Tag(), encoded[0])
	assert.Less(t, len(encoded), len(data)/10)
}

func TestDecodeCorrupt(t *testing.T) {
	_, err := Decode(nil)
	assert.Error(t, err)

	_, err = Decode([]byte{1})
	assert.Error(t, err, "missing length prefix")

	_, err = Decode([]byte{1, 0xff, 0xff, 0xff, 0xff, 0x0f})
	assert.Error(t, err, "length beyond limit")

	_, err = Decode([]byte{1, 10, 0x00})
	assert.Error(t, err, "truncated block")
}
