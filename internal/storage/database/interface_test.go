package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixEnd(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
		want   []byte
	}{
		{name: "simple", prefix: []byte{0x01, 0x02}, want: []byte{0x01, 0x03}},
		{name: "carry", prefix: []byte{0x01, 0xff}, want: []byte{0x02}},
		{name: "all ff", prefix: []byte{0xff, 0xff}, want: nil},
		{name: "empty", prefix: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix := append([]byte(nil), tt.prefix...)
			assert.Equal(t, tt.want, PrefixEnd(tt.prefix))
			assert.Equal(t, prefix, tt.prefix, "prefix must not be modified")
		})
	}
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open("no-such-backend", "")
	assert.ErrorIs(t, err, ErrUnknownBackend)
	assert.False(t, IsRegistered("no-such-backend"))
}

func TestRegister(t *testing.T) {
	Register("test-nil", func(string) (DB, error) { return nil, nil })
	assert.True(t, IsRegistered("test-nil"))
	assert.Contains(t, Backends(), "test-nil")
}
