// Package w32 implements 32-bit word operations for RIPEMD-160
// arithmetization.
//
// Words are kept in two bound representations at once: the packed field
// element and its little-endian decomposition into fixed-width chunks. Boolean
// operations (AND, XOR and everything derived from them) are performed
// chunk-wise through lookup tables holding all 2^w × 2^w operand pairs, so a
// full 32-bit operation costs 32/w lookups instead of a per-bit constraint
// chain. Modular addition and constant-amount rotation work on the packed
// form, with carries and slice parts bounded through the same range table.
//
// Every [Word] handed out by the gadget is range constrained on construction;
// there is no path that produces an unconstrained word. A witness value
// violating a claimed bit width makes the constraint system unsatisfiable
// rather than producing a wrong result.
package w32

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/bitslice"
	"github.com/consensys/gnark/std/math/uints"
)

// WordBits is the word size handled by the gadget.
const WordBits = 32

// Word is a 32-bit unsigned integer in the circuit. It carries both the
// packed value and its chunk decomposition; both are constrained to agree.
// Create words with [Words.ValueOf], [Words.Constant] or
// [Words.PackBytesLSB].
type Word struct {
	val    frontend.Variable
	chunks []frontend.Variable // little-endian, each in [0, 2^chunkWidth)
}

// Words performs word operations. Use [New] to create an instance; it is
// cached per (builder, configuration) pair so the lookup tables are built
// once.
type Words struct {
	api   frontend.API
	bytes *uints.Bytes
	tbl   *tables
	cfg   config
}

type ctxKey struct{ cfg config }

// kvstore is the structural subset of the builder's key-value store used for
// caching gadget singletons.
type kvstore interface {
	SetKeyValue(key, value any)
	GetKeyValue(key any) any
}

// New returns a word gadget for the given builder. Repeated calls with the
// same configuration return the same instance.
func New(api frontend.API, opts ...Option) (*Words, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	kv, hasStore := api.(kvstore)
	if hasStore {
		if cached, ok := kv.GetKeyValue(ctxKey{cfg: cfg}).(*Words); ok {
			return cached, nil
		}
	}
	bts, err := uints.NewBytes(api)
	if err != nil {
		return nil, fmt.Errorf("new bytes: %w", err)
	}
	w := &Words{
		api:   api,
		bytes: bts,
		tbl:   newTables(api, cfg),
		cfg:   cfg,
	}
	if hasStore {
		kv.SetKeyValue(ctxKey{cfg: cfg}, w)
	}
	return w, nil
}

// ChunkWidth returns the configured bits per lookup operand.
func (w *Words) ChunkWidth() int { return w.cfg.chunkWidth }

func (w *Words) nbChunks() int { return WordBits / w.cfg.chunkWidth }

// Constant returns the in-circuit constant v.
func (w *Words) Constant(v uint32) Word {
	chunks := make([]frontend.Variable, w.nbChunks())
	mask := uint32(1)<<w.cfg.chunkWidth - 1
	for i := range chunks {
		chunks[i] = v >> (i * w.cfg.chunkWidth) & mask
	}
	return Word{val: v, chunks: chunks}
}

// ValueOf constrains v to be a 32-bit word and returns it in gadget form.
func (w *Words) ValueOf(v frontend.Variable) Word {
	return Word{val: v, chunks: w.decompose(v, WordBits)}
}

// Value returns the packed value of a word.
func (w *Words) Value(a Word) frontend.Variable { return a.val }

// AssertIsEqual asserts a == b.
func (w *Words) AssertIsEqual(a, b Word) {
	w.api.AssertIsEqual(a.val, b.val)
}

// decompose splits v into little-endian chunks covering nbBits bits, range
// checks every chunk (the top one to the partial width if nbBits is not a
// multiple of the chunk width) and binds the weighted sum back to v, which
// also bounds v itself to nbBits bits.
func (w *Words) decompose(v frontend.Variable, nbBits int) []frontend.Variable {
	cw := w.cfg.chunkWidth
	nb := (nbBits + cw - 1) / cw
	chunks, err := w.api.Compiler().NewHint(chunksHint, nb, cw, v)
	if err != nil {
		panic(err)
	}
	for i := range chunks {
		width := cw
		if i == nb-1 && nbBits%cw != 0 {
			width = nbBits % cw
		}
		w.tbl.checkBits(chunks[i], width)
	}
	w.api.AssertIsEqual(v, w.recompose(chunks))
	return chunks
}

// recompose returns the weighted little-endian sum of chunks.
func (w *Words) recompose(chunks []frontend.Variable) frontend.Variable {
	if len(chunks) == 1 {
		return chunks[0]
	}
	terms := make([]frontend.Variable, len(chunks))
	for i := range chunks {
		terms[i] = w.api.Mul(chunks[i], uint64(1)<<(i*w.cfg.chunkWidth))
	}
	return w.api.Add(terms[0], terms[1], terms[2:]...)
}

func (w *Words) fromChunks(chunks []frontend.Variable) Word {
	return Word{val: w.recompose(chunks), chunks: chunks}
}

// PackBytesLSB packs four little-endian bytes into a word. The bytes are
// range enforced through the byte gadget before use.
func (w *Words) PackBytesLSB(bts []uints.U8) Word {
	if len(bts) != 4 {
		panic("PackBytesLSB expects 4 bytes")
	}
	vals := make([]frontend.Variable, 4)
	for i := range bts {
		vals[i] = w.bytes.Value(bts[i])
	}
	cw := w.cfg.chunkWidth
	chunks := make([]frontend.Variable, 0, w.nbChunks())
	if cw == 8 {
		chunks = append(chunks, vals...)
	} else {
		for i := range vals {
			chunks = append(chunks, w.decompose(vals[i], 8)...)
		}
	}
	terms := make([]frontend.Variable, 4)
	for i := range vals {
		terms[i] = w.api.Mul(vals[i], uint64(1)<<(8*i))
	}
	return Word{
		val:    w.api.Add(terms[0], terms[1], terms[2:]...),
		chunks: chunks,
	}
}

// UnpackLSB returns the word as four little-endian bytes, constrained
// through the byte gadget.
func (w *Words) UnpackLSB(a Word) []uints.U8 {
	perByte := 8 / w.cfg.chunkWidth
	ret := make([]uints.U8, 4)
	for i := range ret {
		ret[i] = w.bytes.ValueOf(w.recompose(a.chunks[i*perByte : (i+1)*perByte]))
	}
	return ret
}

// twoChunkFn folds the words pairwise through a chunk-level primitive.
func (w *Words) twoChunkFn(lookup func(x, y frontend.Variable) frontend.Variable, a ...Word) Word {
	if len(a) == 0 {
		panic("zero-length input")
	}
	if len(a) == 1 {
		return a[0]
	}
	chunks := make([]frontend.Variable, w.nbChunks())
	copy(chunks, a[0].chunks)
	for i := 1; i < len(a); i++ {
		for j := range chunks {
			chunks[j] = lookup(chunks[j], a[i].chunks[j])
		}
	}
	return w.fromChunks(chunks)
}

// And returns the bitwise conjunction of the words.
func (w *Words) And(a ...Word) Word { return w.twoChunkFn(w.tbl.lookupAnd, a...) }

// Xor returns the bitwise exclusive or of the words.
func (w *Words) Xor(a ...Word) Word { return w.twoChunkFn(w.tbl.lookupXor, a...) }

// orChunk derives x|y from the primitive tables via x^y^(x&y).
func (w *Words) orChunk(x, y frontend.Variable) frontend.Variable {
	return w.tbl.lookupXor(w.tbl.lookupXor(x, y), w.tbl.lookupAnd(x, y))
}

// notChunk derives ^x via x^(2^width-1).
func (w *Words) notChunk(x frontend.Variable) frontend.Variable {
	return w.tbl.lookupXor(x, uint64(1)<<w.cfg.chunkWidth-1)
}

// Or returns the bitwise disjunction of two words.
func (w *Words) Or(a, b Word) Word { return w.twoChunkFn(w.orChunk, a, b) }

// Not returns the bitwise complement of a word.
func (w *Words) Not(a Word) Word {
	chunks := make([]frontend.Variable, w.nbChunks())
	for i := range chunks {
		chunks[i] = w.notChunk(a.chunks[i])
	}
	return w.fromChunks(chunks)
}

func (w *Words) chunkMap3(f func(x, y, z frontend.Variable) frontend.Variable, x, y, z Word) Word {
	chunks := make([]frontend.Variable, w.nbChunks())
	for i := range chunks {
		chunks[i] = f(x.chunks[i], y.chunks[i], z.chunks[i])
	}
	return w.fromChunks(chunks)
}

// F1 returns x ^ y ^ z.
func (w *Words) F1(x, y, z Word) Word { return w.Xor(x, y, z) }

// F2 returns (x & y) | (^x & z). The two masks select on complementary bits
// of x, so the disjunction reduces to an exclusive or.
func (w *Words) F2(x, y, z Word) Word {
	return w.chunkMap3(func(xc, yc, zc frontend.Variable) frontend.Variable {
		return w.tbl.lookupXor(w.tbl.lookupAnd(xc, yc), w.tbl.lookupAnd(w.notChunk(xc), zc))
	}, x, y, z)
}

// F3 returns (x | ^y) ^ z.
func (w *Words) F3(x, y, z Word) Word {
	return w.chunkMap3(func(xc, yc, zc frontend.Variable) frontend.Variable {
		return w.tbl.lookupXor(w.orChunk(xc, w.notChunk(yc)), zc)
	}, x, y, z)
}

// F4 returns (x & z) | (y & ^z), an exclusive or for the same reason as
// [Words.F2].
func (w *Words) F4(x, y, z Word) Word {
	return w.chunkMap3(func(xc, yc, zc frontend.Variable) frontend.Variable {
		return w.tbl.lookupXor(w.tbl.lookupAnd(xc, zc), w.tbl.lookupAnd(yc, w.notChunk(zc)))
	}, x, y, z)
}

// F5 returns x ^ (y | ^z).
func (w *Words) F5(x, y, z Word) Word {
	return w.chunkMap3(func(xc, yc, zc frontend.Variable) frontend.Variable {
		return w.tbl.lookupXor(xc, w.orChunk(yc, w.notChunk(zc)))
	}, x, y, z)
}

// Add returns the sum of the words modulo 2^32.
func (w *Words) Add(a ...Word) Word {
	res, _ := w.AddConstWithCarry(0, a...)
	return res
}

// AddConst returns (k + sum of the words) modulo 2^32.
func (w *Words) AddConst(k uint32, a ...Word) Word {
	res, _ := w.AddConstWithCarry(k, a...)
	return res
}

// AddConstWithCarry returns (k + sum of the words) modulo 2^32 together with
// the extracted carry. The carry is range checked to exactly the number of
// bits the maximum possible sum can overflow by.
func (w *Words) AddConstWithCarry(k uint32, a ...Word) (Word, frontend.Variable) {
	if len(a) == 0 {
		panic("zero-length input")
	}
	if len(a) == 1 && k == 0 {
		return a[0], 0
	}
	terms := make([]frontend.Variable, len(a), len(a)+1)
	for i := range a {
		terms[i] = a[i].val
	}
	if k != 0 {
		terms = append(terms, k)
	}
	sum := w.api.Add(terms[0], terms[1], terms[2:]...)

	outs, err := w.api.Compiler().NewHint(splitSumHint, 2, sum)
	if err != nil {
		panic(err)
	}
	lo, carry := outs[0], outs[1]

	res := w.ValueOf(lo)
	maxSum := uint64(len(a))*math.MaxUint32 + uint64(k)
	carryBits := bits.Len64(maxSum >> WordBits)
	switch {
	case carryBits == 0:
		w.api.AssertIsEqual(carry, 0)
	case carryBits <= w.cfg.chunkWidth:
		w.tbl.checkBits(carry, carryBits)
	default:
		w.decompose(carry, carryBits)
	}
	w.api.AssertIsEqual(sum, w.api.Add(res.val, w.api.Mul(carry, uint64(1)<<WordBits)))
	return res, carry
}

// Lrot rotates the word left by the compile-time constant c. The rotation is
// chunk-granular: whole chunks are re-indexed for free and the residual
// sub-chunk shift splits every chunk once.
func (w *Words) Lrot(a Word, c int) Word {
	cw := w.cfg.chunkWidth
	n := w.nbChunks()
	c = ((c % WordBits) + WordBits) % WordBits
	if c == 0 {
		return a
	}
	shiftC := c / cw
	shiftB := c % cw
	chunks := make([]frontend.Variable, n)
	if shiftB == 0 {
		for i := 0; i < n; i++ {
			chunks[(i+shiftC)%n] = a.chunks[i]
		}
		return w.fromChunks(chunks)
	}
	partitioned := make([][2]frontend.Variable, n)
	for i := range partitioned {
		lower, upper := bitslice.Partition(w.api, a.chunks[i], uint(cw-shiftB), bitslice.WithNbDigits(cw))
		// lower and upper are range checked by the partition
		partitioned[i] = [2]frontend.Variable{lower, upper}
	}
	for i := 0; i < n; i++ {
		chunks[(i+shiftC)%n] = w.api.Add(w.api.Mul(1<<shiftB, partitioned[i][0]), partitioned[(i+n-1)%n][1])
	}
	return w.fromChunks(chunks)
}
