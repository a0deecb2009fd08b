package ripemd160

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"

	"github.com/snarkhash/gnark-ripemd160/native"
)

// NbBlocks returns the number of compression blocks for a message of msgLen
// bytes after padding.
func NbBlocks(msgLen int) int {
	return (msgLen + 9 + native.BlockSize - 1) / native.BlockSize
}

// Circuit proves knowledge of a preimage of a RIPEMD-160 digest. The
// preimage length (and with it the block count) is fixed at compile time by
// the length of the Preimage slice; the digest is the only public input.
type Circuit struct {
	Preimage []uints.U8
	Digest   [native.Size]uints.U8 `gnark:",public"`

	nbBlocks int
	opts     []Option
}

// NewCircuit returns a compile-time circuit shell for messages of exactly
// msgLen bytes.
func NewCircuit(msgLen int, opts ...Option) *Circuit {
	return &Circuit{
		Preimage: make([]uints.U8, msgLen),
		nbBlocks: NbBlocks(msgLen),
		opts:     opts,
	}
}

// Assign returns a witness assignment for the given message.
func Assign(msg []byte) *Circuit {
	dgst := native.Sum(msg)
	return &Circuit{
		Preimage: uints.NewU8Array(msg),
		Digest:   [native.Size]uints.U8(uints.NewU8Array(dgst[:])),
	}
}

func (c *Circuit) Define(api frontend.API) error {
	// a declared block count inconsistent with the preimage length is a
	// construction bug, rejected before any row is laid out
	if c.nbBlocks != 0 && NbBlocks(len(c.Preimage)) != c.nbBlocks {
		return fmt.Errorf("message length %d inconsistent with %d declared blocks", len(c.Preimage), c.nbBlocks)
	}
	h, err := New(api, c.opts...)
	if err != nil {
		return fmt.Errorf("new hasher: %w", err)
	}
	uapi, err := uints.NewBytes(api)
	if err != nil {
		return fmt.Errorf("new bytes: %w", err)
	}
	h.Write(c.Preimage)
	res := h.Sum()
	if len(res) != native.Size {
		return fmt.Errorf("digest is %d bytes, expected %d", len(res), native.Size)
	}
	for i := range c.Digest {
		uapi.AssertIsEqual(c.Digest[i], res[i])
	}
	return nil
}
