package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/big"
)

// rangeCodeSize is the size of an order-preserving range code in bytes.
// The 192-bit codomain leaves every interval at least 2^64 wide after the 64
// subdivision steps, so no interval ever collapses.
const rangeCodeSize = 24

// rangeEncoder produces deterministic order-preserving codes for 64-bit
// ordinals using keyed binary interval subdivision.
//
// The codomain [0, 2^192) is split recursively: at each of the 64 steps the
// current interval is divided at a pseudorandom point and the next bit of the
// ordinal selects the half to descend into. The split point is derived from
// an HMAC over the bit path, and is constrained to the middle half of the
// interval so both sides keep at least a quarter of the width.
//
// Order preservation: two distinct ordinals follow the same path until their
// first differing bit, where they computed the same split point and descended
// into disjoint, ordered halves. All deeper subdivision stays inside those
// halves, so the final codes compare in byte-lexicographic order exactly as
// the ordinals compare numerically. Equal ordinals produce equal codes.
//
// The codes leak order (that is their purpose) but nothing else: recovering
// the split points requires the range key.
type rangeEncoder struct {
	key []byte
}

// Encode maps an ordinal to its 24-byte order-preserving code.
func (r *rangeEncoder) Encode(ord uint64) []byte {
	lo := new(big.Int)
	hi := new(big.Int).Lsh(big.NewInt(1), rangeCodeSize*8)

	width := new(big.Int)
	quarter := new(big.Int)
	span := new(big.Int)
	offset := new(big.Int)

	for depth := 63; depth >= 0; depth-- {
		// Split point derived from the bit path above this depth, so both
		// branches of a node agree on where the node splits.
		prefix := uint64(0)
		if depth < 63 {
			prefix = ord >> (depth + 1)
		}

		width.Sub(hi, lo)
		quarter.Rsh(width, 2)

		// span = width/2 + 1 candidate positions inside the middle half
		span.Rsh(width, 1)
		span.Add(span, big.NewInt(1))
		offset.Mod(r.prf(prefix, uint8(depth)), span)

		split := new(big.Int).Add(lo, quarter)
		split.Add(split, offset)

		if ord&(1<<depth) != 0 {
			lo.Set(split)
		} else {
			hi.Set(split)
		}
	}

	code := make([]byte, rangeCodeSize)
	lo.FillBytes(code)
	return code
}

// prf derives the pseudorandom split material for one node of the
// subdivision tree, identified by the consumed bit prefix and the depth.
func (r *rangeEncoder) prf(prefix uint64, depth uint8) *big.Int {
	mac := hmac.New(sha256.New, r.key)

	var buf [9]byte
	binary.BigEndian.PutUint64(buf[:8], prefix)
	buf[8] = depth
	mac.Write(buf[:])

	return new(big.Int).SetBytes(mac.Sum(nil))
}

// newRangeEncoder creates an encoder keyed with the given range key. The key
// must be derived per field key version so that rotated keys produce
// independent code spaces.
func newRangeEncoder(key []byte) *rangeEncoder {
	return &rangeEncoder{key: key}
}
