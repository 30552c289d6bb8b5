package store

import (
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/LeJamon/gorebase/internal/store/compression"
)

var msgpack = &codec.MsgpackHandle{}

func init() {
	msgpack.WriteExt = true
	msgpack.RawToString = true
}

// encode serializes v with msgpack and compresses it with c.
func encode(c compression.Compressor, v any) ([]byte, error) {
	var raw []byte
	if err := codec.NewEncoderBytes(&raw, msgpack).Encode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return compression.Encode(c, raw)
}

// decode reverses encode into v.
func decode(data []byte, v any) error {
	raw, err := compression.Decode(data)
	if err != nil {
		return err
	}
	if err := codec.NewDecoderBytes(raw, msgpack).Decode(v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
