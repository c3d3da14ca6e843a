package encoding

import (
	"strings"
)

const crockfordLowerAlphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// EncodeCrockfordB32LC encodes input with Crockford's Base32 alphabet in lower
// case and without padding. A 16-byte UUID encodes to 26 characters.
func EncodeCrockfordB32LC(input []byte) string {
	var (
		out   strings.Builder
		bits  uint
		accum uint32
	)

	out.Grow((len(input)*8 + 4) / 5)

	for _, b := range input {
		accum = accum<<8 | uint32(b)
		bits += 8

		for bits >= 5 {
			bits -= 5
			out.WriteByte(crockfordLowerAlphabet[(accum>>bits)&0x1F])
		}
	}

	if bits > 0 {
		out.WriteByte(crockfordLowerAlphabet[(accum<<(5-bits))&0x1F])
	}

	return out.String()
}
