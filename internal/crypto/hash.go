package crypto

import "crypto/sha512"

// Sha512Half returns the first 32 bytes of the SHA-512 of the concatenated inputs.
func Sha512Half(data ...[]byte) [32]byte {
	h := sha512.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
