// Package compress implements the RIPEMD-160 compression function in-circuit.
//
// Each 512-bit block is processed by two independent 80-step lines whose
// round functions, message-word permutations, rotation amounts and additive
// constants come from the schedule tables in the native package. All
// schedule selections are synthesis-time constants, so the resulting
// constraint system is fully unrolled with no value-dependent branching. The
// two lines join only in the final fold, which combines their last registers
// with the pre-block chaining value.
package compress

import (
	"github.com/consensys/gnark/std/math/uints"

	"github.com/snarkhash/gnark-ripemd160/native"
	"github.com/snarkhash/gnark-ripemd160/w32"
)

// Schedule fixes one line's round data. The round function ids index
// native's F1..F5.
type Schedule struct {
	fns [5]int
	k   [5]uint32
	msg [native.Rounds]uint8
	rot [native.Rounds]uint8
}

var (
	scheduleLeft = Schedule{
		fns: [5]int{0, 1, 2, 3, 4},
		k:   native.KLeft,
		msg: native.MsgIdxLeft,
		rot: native.RotLeft,
	}
	scheduleRight = Schedule{
		fns: [5]int{4, 3, 2, 1, 0},
		k:   native.KRight,
		msg: native.MsgIdxRight,
		rot: native.RotRight,
	}
)

// LeftSchedule and RightSchedule return the fixed schedules of the two lines.
func LeftSchedule() *Schedule  { return &scheduleLeft }
func RightSchedule() *Schedule { return &scheduleRight }

// roundFunc applies the round boolean function selected by id. The selection
// happens at synthesis time; only the chosen gadget ends up in the circuit.
func roundFunc(w *w32.Words, id int, x, y, z w32.Word) w32.Word {
	switch id {
	case 0:
		return w.F1(x, y, z)
	case 1:
		return w.F2(x, y, z)
	case 2:
		return w.F3(x, y, z)
	case 3:
		return w.F4(x, y, z)
	case 4:
		return w.F5(x, y, z)
	default:
		panic("round function id out of range")
	}
}

// Step applies one compression step of the given schedule:
//
//	T = rotl(a + f(b,c,d) + X[msg[j]] + K[j/16], rot[j]) + e
//	(a,b,c,d,e) <- (e, T, b, rotl(c,10), d)
//
// It is exported so per-round states can be checked against the native trace.
func Step(w *w32.Words, sch *Schedule, j int, s [5]w32.Word, x *[16]w32.Word) [5]w32.Word {
	group := j / native.RoundGroup
	f := roundFunc(w, sch.fns[group], s[1], s[2], s[3])
	t := w.AddConst(sch.k[group], s[0], f, x[sch.msg[j]])
	t = w.Lrot(t, int(sch.rot[j]))
	t = w.Add(t, s[4])
	return [5]w32.Word{s[4], t, s[1], w.Lrot(s[2], 10), s[3]}
}

// PermuteWords applies the compression function to a chaining value and a
// block already in word form.
func PermuteWords(w *w32.Words, h [5]w32.Word, x [16]w32.Word) [5]w32.Word {
	left, right := h, h
	for j := 0; j < native.Rounds; j++ {
		left = Step(w, &scheduleLeft, j, left, &x)
		right = Step(w, &scheduleRight, j, right, &x)
	}
	// cross-line fold into the next chaining value
	var next [5]w32.Word
	for i := range next {
		next[i] = w.Add(h[(i+1)%5], left[(i+2)%5], right[(i+3)%5])
	}
	return next
}

// Permute applies the compression function to a chaining value and a 64-byte
// block, packing the sixteen little-endian message words first.
func Permute(w *w32.Words, h [5]w32.Word, p [64]uints.U8) [5]w32.Word {
	var x [16]w32.Word
	for i := range x {
		x[i] = w.PackBytesLSB(p[4*i : 4*i+4])
	}
	return PermuteWords(w, h, x)
}
