package compress

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/consensys/gnark/test"

	"github.com/snarkhash/gnark-ripemd160/native"
	"github.com/snarkhash/gnark-ripemd160/w32"
)

type permuteCircuit struct {
	In       [64]uints.U8
	Expected [5]frontend.Variable

	opts []w32.Option
}

func (c *permuteCircuit) Define(api frontend.API) error {
	w, err := w32.New(api, c.opts...)
	if err != nil {
		return err
	}
	var h [5]w32.Word
	for i, v := range native.IV {
		h[i] = w.Constant(v)
	}
	res := Permute(w, h, c.In)
	for i := range res {
		api.AssertIsEqual(w.Value(res[i]), c.Expected[i])
	}
	return nil
}

func singleBlock(t *testing.T, msg string) ([64]uints.U8, native.Block) {
	t.Helper()
	padded := native.Pad([]byte(msg))
	if len(padded) != native.BlockSize {
		t.Fatalf("message %q does not pad to a single block", msg)
	}
	var in [64]uints.U8
	copy(in[:], uints.NewU8Array(padded))
	return in, native.BlockOf(padded)
}

func TestPermute(t *testing.T) {
	assert := test.NewAssert(t)
	for _, msg := range []string{"", "abc", "message digest"} {
		in, block := singleBlock(t, msg)
		out := native.Compress(native.IV, block)
		witness := &permuteCircuit{In: in}
		for i, v := range out {
			witness.Expected[i] = v
		}
		err := test.IsSolved(&permuteCircuit{}, witness, ecc.BN254.ScalarField())
		assert.NoError(err)
	}
}

func TestPermuteNarrowChunks(t *testing.T) {
	assert := test.NewAssert(t)
	in, block := singleBlock(t, "abc")
	out := native.Compress(native.IV, block)
	witness := &permuteCircuit{In: in}
	for i, v := range out {
		witness.Expected[i] = v
	}
	err := test.IsSolved(&permuteCircuit{opts: []w32.Option{w32.WithChunkWidth(4)}}, witness, ecc.BN254.ScalarField())
	assert.NoError(err)
}

func TestPermuteRejectsWrongDigest(t *testing.T) {
	assert := test.NewAssert(t)
	in, block := singleBlock(t, "abc")
	out := native.Compress(native.IV, block)
	witness := &permuteCircuit{In: in}
	for i, v := range out {
		witness.Expected[i] = v
	}
	// a single flipped output bit must be unsatisfiable
	witness.Expected[2] = out[2] ^ 1
	err := test.IsSolved(&permuteCircuit{}, witness, ecc.BN254.ScalarField())
	assert.Error(err)
}

type stepsCircuit struct {
	X        [16]frontend.Variable
	Expected [5]frontend.Variable

	nbSteps int
	right   bool
}

func (c *stepsCircuit) Define(api frontend.API) error {
	w, err := w32.New(api)
	if err != nil {
		return err
	}
	var x [16]w32.Word
	for i := range c.X {
		x[i] = w.ValueOf(c.X[i])
	}
	var s [5]w32.Word
	for i, v := range native.IV {
		s[i] = w.Constant(v)
	}
	sch := LeftSchedule()
	if c.right {
		sch = RightSchedule()
	}
	for j := 0; j < c.nbSteps; j++ {
		s = Step(w, sch, j, s, &x)
	}
	for i := range s {
		api.AssertIsEqual(w.Value(s[i]), c.Expected[i])
	}
	return nil
}

// TestStepTrace pins the first steps of both lines to the native per-round
// trace, so a schedule mix-up is caught at the exact step instead of as a
// digest mismatch 80 rounds later.
func TestStepTrace(t *testing.T) {
	assert := test.NewAssert(t)
	padded := native.Pad([]byte("abc"))
	block := native.BlockOf(padded)
	tr := native.TraceBlock(native.IV, block)

	for _, right := range []bool{false, true} {
		states := tr.Left
		if right {
			states = tr.Right
		}
		// one step into each round group, plus the full line
		for _, nbSteps := range []int{1, 2, 17, 33, 49, 65, 80} {
			witness := &stepsCircuit{}
			for i, v := range block {
				witness.X[i] = v
			}
			for i, v := range states[nbSteps] {
				witness.Expected[i] = v
			}
			err := test.IsSolved(&stepsCircuit{nbSteps: nbSteps, right: right}, witness, ecc.BN254.ScalarField())
			assert.NoError(err)
		}
	}
}
