package crypto

import "math/big"

var (
	// G = 0xFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141
	secp256k1Order = func() *big.Int {
		n, _ := new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
		return n
	}()
	secp256k1HalfOrder = new(big.Int).Rsh(secp256k1Order, 1)
)

// IsCanonical reports whether a DER-encoded ECDSA signature is strictly
// encoded with R and S in [1, G-1] and S <= G/2. Only canonical signatures are
// accepted, so a signed request has exactly one valid encoding.
func IsCanonical(sig []byte) bool {
	// 0x30 <total-len> 0x02 <r-len> <r> 0x02 <s-len> <s>
	if len(sig) < 8 || len(sig) > 72 {
		return false
	}
	if sig[0] != 0x30 || int(sig[1]) != len(sig)-2 {
		return false
	}

	rBytes, rest, ok := parseDERInteger(sig[2:])
	if !ok {
		return false
	}
	sBytes, rest, ok := parseDERInteger(rest)
	if !ok || len(rest) != 0 {
		return false
	}

	r := new(big.Int).SetBytes(rBytes)
	s := new(big.Int).SetBytes(sBytes)
	if r.Sign() <= 0 || r.Cmp(secp256k1Order) >= 0 {
		return false
	}
	if s.Sign() <= 0 || s.Cmp(secp256k1Order) >= 0 {
		return false
	}
	return s.Cmp(secp256k1HalfOrder) <= 0
}

// parseDERInteger returns the integer bytes and the remaining data.
func parseDERInteger(data []byte) ([]byte, []byte, bool) {
	if len(data) < 2 || data[0] != 0x02 {
		return nil, nil, false
	}
	length := int(data[1])
	if length < 1 || length > 33 || len(data) < 2+length {
		return nil, nil, false
	}

	v := data[2 : 2+length]
	if v[0]&0x80 != 0 {
		return nil, nil, false
	}
	// minimal encoding: a leading zero only guards a high bit
	if v[0] == 0 && (length == 1 || v[1]&0x80 == 0) {
		return nil, nil, false
	}
	return v, data[2+length:], true
}
