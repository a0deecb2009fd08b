package w32

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint/solver"
)

func init() {
	solver.RegisterHint(GetHints()...)
}

// GetHints returns all hints used in the package.
func GetHints() []solver.Hint {
	return []solver.Hint{chunksHint, splitSumHint}
}

// chunksHint decomposes inputs[1] into little-endian chunks of inputs[0] bits
// each. The number of chunks is the number of hint outputs.
func chunksHint(_ *big.Int, inputs, outputs []*big.Int) error {
	if len(inputs) != 2 {
		return fmt.Errorf("expecting two inputs")
	}
	if !inputs[0].IsUint64() {
		return fmt.Errorf("chunk width must be an integer")
	}
	width := uint(inputs[0].Uint64())
	base := new(big.Int).Lsh(big.NewInt(1), width)
	tmp := new(big.Int).Set(inputs[1])
	for i := range outputs {
		outputs[i].Mod(tmp, base)
		tmp.Rsh(tmp, width)
	}
	return nil
}

// splitSumHint splits inputs[0] into its low 32 bits and the overflow above
// them.
func splitSumHint(_ *big.Int, inputs, outputs []*big.Int) error {
	if len(inputs) != 1 {
		return fmt.Errorf("expecting one input")
	}
	if len(outputs) != 2 {
		return fmt.Errorf("expecting two outputs")
	}
	base := new(big.Int).Lsh(big.NewInt(1), 32)
	outputs[0].Mod(inputs[0], base)
	outputs[1].Rsh(inputs[0], 32)
	return nil
}
