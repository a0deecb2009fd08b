// Package ripemd160 provides an in-circuit RIPEMD-160 hash for gnark.
//
// The hash is arithmetized over chunked lookup tables (see the w32
// subpackage); this package adds the byte-level Merkle-Damgard layer: padding,
// block iteration and the digest wrapper implementing [hash.BinaryHasher]. The
// number of processed blocks is fixed at synthesis time by the number of
// bytes written.
package ripemd160

import (
	"encoding/binary"
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/math/uints"

	"github.com/snarkhash/gnark-ripemd160/compress"
	"github.com/snarkhash/gnark-ripemd160/native"
	"github.com/snarkhash/gnark-ripemd160/w32"
)

// Option configures the gadget. The options are shared with the w32
// subpackage.
type Option = w32.Option

// WithChunkWidth sets the bits per lookup operand. See [w32.WithChunkWidth].
func WithChunkWidth(width int) Option { return w32.WithChunkWidth(width) }

// WithTableLayout sets the lookup table layout. See [w32.WithTableLayout].
func WithTableLayout(layout w32.TableLayout) Option { return w32.WithTableLayout(layout) }

type digest struct {
	words *w32.Words
	in    []uints.U8
}

// New returns a new RIPEMD-160 hasher.
func New(api frontend.API, opts ...Option) (hash.BinaryHasher, error) {
	words, err := w32.New(api, opts...)
	if err != nil {
		return nil, fmt.Errorf("new words: %w", err)
	}
	return &digest{words: words}, nil
}

func (d *digest) Write(data []uints.U8) {
	d.in = append(d.in, data...)
}

func (d *digest) padded(bytesLen int) []uints.U8 {
	zeroPadLen := 55 - bytesLen%64
	if zeroPadLen < 0 {
		zeroPadLen += 64
	}
	if cap(d.in) < len(d.in)+9+zeroPadLen {
		// in case this is the first time this method is called increase the
		// capacity of the slice to fit the padding.
		d.in = append(d.in, make([]uints.U8, 9+zeroPadLen)...)
		d.in = d.in[:len(d.in)-9-zeroPadLen]
	}
	buf := d.in
	buf = append(buf, uints.NewU8(0x80))
	buf = append(buf, uints.NewU8Array(make([]uint8, zeroPadLen))...)
	lenbuf := make([]uint8, 8)
	binary.LittleEndian.PutUint64(lenbuf, uint64(8*bytesLen))
	buf = append(buf, uints.NewU8Array(lenbuf)...)
	return buf
}

func (d *digest) Sum() []uints.U8 {
	var runningDigest [5]w32.Word
	var buf [64]uints.U8
	for i, v := range native.IV {
		runningDigest[i] = d.words.Constant(v)
	}
	padded := d.padded(len(d.in))
	for i := 0; i < len(padded)/64; i++ {
		copy(buf[:], padded[i*64:(i+1)*64])
		runningDigest = compress.Permute(d.words, runningDigest, buf)
	}
	var ret []uints.U8
	for i := range runningDigest {
		ret = append(ret, d.words.UnpackLSB(runningDigest[i])...)
	}
	return ret
}

func (d *digest) Reset() {
	d.in = nil
}

func (d *digest) Size() int {
	return native.Size
}
