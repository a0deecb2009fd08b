// Package native implements RIPEMD-160 over bytes, outside the circuit.
//
// It is the reference oracle for the in-circuit gadget: the digest
// computed here is what the circuit asserts against, and [TraceBlock] exposes
// every intermediate line state so gadget tests can pin down the exact round
// where an arithmetization diverges. The package also owns the round schedule
// tables (message-word permutation, rotation amounts, additive constants)
// which the circuit bakes in as compile-time constants, so the oracle and the
// constraint system cannot drift apart.
//
// The implementation is not constant time. It is a reference, not a
// side-channel hardened primitive.
package native

import (
	"encoding/binary"
	"math/bits"
)

const (
	// Size is the digest size in bytes.
	Size = 20
	// BlockSize is the compression block size in bytes.
	BlockSize = 64

	// Rounds is the number of steps per line and per block.
	Rounds = 80
	// RoundGroup is the number of steps sharing one round function and
	// additive constant.
	RoundGroup = 16
)

// State is the 160-bit chaining value (h0..h4).
type State [5]uint32

// Block is one 512-bit message block as sixteen little-endian words.
type Block [16]uint32

// IV is the fixed initial chaining value.
var IV = State{0x67452301, 0xefcdab89, 0x98badcfe, 0x10325476, 0xc3d2e1f0}

// KLeft and KRight are the per-round-group additive constants. The right
// line's final group and the left line's first group use constant zero.
var (
	KLeft  = [5]uint32{0x00000000, 0x5a827999, 0x6ed9eba1, 0x8f1bbcdc, 0xa953fd4e}
	KRight = [5]uint32{0x50a28be6, 0x5c4dd124, 0x6d703ef3, 0x7a6d76e9, 0x00000000}
)

// MsgIdxLeft and MsgIdxRight select the message word consumed at each step.
var MsgIdxLeft = [Rounds]uint8{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	7, 4, 13, 1, 10, 6, 15, 3, 12, 0, 9, 5, 2, 14, 11, 8,
	3, 10, 14, 4, 9, 15, 8, 1, 2, 7, 0, 6, 13, 11, 5, 12,
	1, 9, 11, 10, 0, 8, 12, 4, 13, 3, 7, 15, 14, 5, 6, 2,
	4, 0, 5, 9, 7, 12, 2, 10, 14, 1, 3, 8, 11, 6, 15, 13,
}

var MsgIdxRight = [Rounds]uint8{
	5, 14, 7, 0, 9, 2, 11, 4, 13, 6, 15, 8, 1, 10, 3, 12,
	6, 11, 3, 7, 0, 13, 5, 10, 14, 15, 8, 12, 4, 9, 1, 2,
	15, 5, 1, 3, 7, 14, 6, 9, 11, 8, 12, 2, 10, 0, 4, 13,
	8, 6, 4, 1, 3, 11, 15, 0, 5, 12, 2, 13, 9, 7, 10, 14,
	12, 15, 10, 4, 1, 5, 8, 7, 6, 2, 13, 14, 0, 3, 9, 11,
}

// RotLeft and RotRight are the per-step left-rotation amounts.
var RotLeft = [Rounds]uint8{
	11, 14, 15, 12, 5, 8, 7, 9, 11, 13, 14, 15, 6, 7, 9, 8,
	7, 6, 8, 13, 11, 9, 7, 15, 7, 12, 15, 9, 11, 7, 13, 12,
	11, 13, 6, 7, 14, 9, 13, 15, 14, 8, 13, 6, 5, 12, 7, 5,
	11, 12, 14, 15, 14, 15, 9, 8, 9, 14, 5, 6, 8, 6, 5, 12,
	9, 15, 5, 11, 6, 8, 13, 12, 5, 12, 13, 14, 11, 8, 5, 6,
}

var RotRight = [Rounds]uint8{
	8, 9, 9, 11, 13, 15, 15, 5, 7, 7, 8, 11, 14, 14, 12, 6,
	9, 13, 15, 7, 12, 8, 9, 11, 7, 7, 12, 7, 6, 15, 13, 11,
	9, 7, 15, 11, 8, 6, 6, 14, 12, 13, 5, 14, 13, 13, 7, 5,
	15, 5, 8, 11, 14, 14, 6, 14, 6, 9, 12, 9, 12, 5, 15, 8,
	8, 5, 12, 9, 12, 5, 14, 6, 8, 13, 6, 5, 15, 13, 11, 11,
}

// F1..F5 are the five round boolean functions. The left line applies them in
// order F1..F5 over the five round groups, the right line in order F5..F1.
func F1(x, y, z uint32) uint32 { return x ^ y ^ z }
func F2(x, y, z uint32) uint32 { return (x & y) | (^x & z) }
func F3(x, y, z uint32) uint32 { return (x | ^y) ^ z }
func F4(x, y, z uint32) uint32 { return (x & z) | (y & ^z) }
func F5(x, y, z uint32) uint32 { return x ^ (y | ^z) }

var roundFuncs = [5]func(x, y, z uint32) uint32{F1, F2, F3, F4, F5}

// RoundFunc returns the boolean function applied at the given round group
// (0..4) of the given line.
func RoundFunc(group int, right bool) func(x, y, z uint32) uint32 {
	if right {
		return roundFuncs[4-group]
	}
	return roundFuncs[group]
}

// Pad appends the RIPEMD-160 padding: a single 0x80 byte, zero bytes up to 56
// mod 64, then the original bit length as a 64-bit little-endian integer. The
// result length is a multiple of [BlockSize].
func Pad(msg []byte) []byte {
	padded := make([]byte, 0, len(msg)+BlockSize+8)
	padded = append(padded, msg...)
	padded = append(padded, 0x80)
	for len(padded)%BlockSize != 56 {
		padded = append(padded, 0)
	}
	var lenbuf [8]byte
	binary.LittleEndian.PutUint64(lenbuf[:], uint64(len(msg))*8)
	return append(padded, lenbuf[:]...)
}

// BlockOf splits a 64-byte padded slice into sixteen little-endian words.
func BlockOf(p []byte) Block {
	var x Block
	for i := range x {
		x[i] = binary.LittleEndian.Uint32(p[4*i:])
	}
	return x
}

func step(j int, s [5]uint32, x *Block, right bool) [5]uint32 {
	group := j / RoundGroup
	var f, k uint32
	var rot uint8
	var m uint32
	if right {
		f = RoundFunc(group, true)(s[1], s[2], s[3])
		k = KRight[group]
		rot = RotRight[j]
		m = x[MsgIdxRight[j]]
	} else {
		f = RoundFunc(group, false)(s[1], s[2], s[3])
		k = KLeft[group]
		rot = RotLeft[j]
		m = x[MsgIdxLeft[j]]
	}
	t := bits.RotateLeft32(s[0]+f+m+k, int(rot)) + s[4]
	return [5]uint32{s[4], t, s[1], bits.RotateLeft32(s[2], 10), s[3]}
}

// fold combines the pre-block chaining value with both lines' final registers
// into the next chaining value.
func fold(h State, l, r [5]uint32) State {
	var next State
	for i := range next {
		next[i] = h[(i+1)%5] + l[(i+2)%5] + r[(i+3)%5]
	}
	return next
}

// Compress applies the two-line compression function to a single block.
func Compress(h State, x Block) State {
	l, r := [5]uint32(h), [5]uint32(h)
	for j := 0; j < Rounds; j++ {
		l = step(j, l, &x, false)
		r = step(j, r, &x, true)
	}
	return fold(h, l, r)
}

// BlockTrace records every intermediate line state of one compressed block.
// Index 0 holds the block-initial state, index j+1 the state after step j.
type BlockTrace struct {
	Left, Right [Rounds + 1][5]uint32
	Next        State
}

// TraceBlock is [Compress] with the full execution trace retained. It exists
// for gadget tests which compare against individual round states.
func TraceBlock(h State, x Block) *BlockTrace {
	tr := &BlockTrace{}
	tr.Left[0], tr.Right[0] = h, h
	for j := 0; j < Rounds; j++ {
		tr.Left[j+1] = step(j, tr.Left[j], &x, false)
		tr.Right[j+1] = step(j, tr.Right[j], &x, true)
	}
	tr.Next = fold(h, tr.Left[Rounds], tr.Right[Rounds])
	return tr
}

// Sum computes the RIPEMD-160 digest of msg.
func Sum(msg []byte) [Size]byte {
	h := IV
	padded := Pad(msg)
	for i := 0; i < len(padded); i += BlockSize {
		h = Compress(h, BlockOf(padded[i:i+BlockSize]))
	}
	var out [Size]byte
	for i, s := range h {
		binary.LittleEndian.PutUint32(out[4*i:], s)
	}
	return out
}
