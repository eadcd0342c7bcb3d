// Package vlq implements the base64 variable-length quantity encoding used by
// source maps. Each integer is sign-encoded in its low bit and split into
// 5-bit groups, least significant first; bit 0x20 marks a continuation.
package vlq

import (
	"errors"
	"fmt"
	"strings"
)

const (
	alphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	shift        = 5
	continuation = 1 << shift
	mask         = continuation - 1
)

// ErrCodec is returned for tokens with characters outside the alphabet or an
// unterminated final group.
var ErrCodec = errors.New("invalid VLQ")

var decodeTable [256]int8

func init() {
	for i := range decodeTable {
		decodeTable[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		decodeTable[alphabet[i]] = int8(i)
	}
}

// Encode returns the token for values. math.MinInt has no positive
// counterpart and is encoded as -0; every other int round-trips.
func Encode(values ...int) string {
	var sb strings.Builder
	for _, v := range values {
		writeValue(&sb, v)
	}
	return sb.String()
}

func writeValue(sb *strings.Builder, v int) {
	var u uint64
	if v < 0 {
		u = uint64(-int64(v))<<1 | 1
	} else {
		u = uint64(v) << 1
	}
	for {
		digit := u & mask
		u >>= shift
		if u > 0 {
			digit |= continuation
		}
		sb.WriteByte(alphabet[digit])
		if u == 0 {
			return
		}
	}
}

// Decode returns every integer encoded in token.
func Decode(token string) ([]int, error) {
	values := make([]int, 0, 5)
	var (
		acc     uint64
		bits    uint
		pending bool
	)
	for i := 0; i < len(token); i++ {
		digit := decodeTable[token[i]]
		if digit < 0 {
			return nil, fmt.Errorf("%w: illegal character %q at offset %d in %q", ErrCodec, token[i], i, token)
		}
		// The 13th group carries bits 60-63 only.
		if bits > 60 || (bits == 60 && digit&mask > 0xF) {
			return nil, fmt.Errorf("%w: value overflows in %q", ErrCodec, token)
		}
		acc |= uint64(digit&mask) << bits
		bits += shift
		pending = digit&continuation != 0
		if pending {
			continue
		}
		v := int(acc >> 1)
		if acc&1 != 0 {
			v = -v
		}
		values = append(values, v)
		acc, bits = 0, 0
	}
	if pending {
		return nil, fmt.Errorf("%w: unterminated sequence in %q", ErrCodec, token)
	}
	return values, nil
}
