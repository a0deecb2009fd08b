package w32

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/logger"
	"github.com/consensys/gnark/std/lookup/logderivlookup"
)

// TableLayout selects how the primitive-operation tables are committed.
type TableLayout uint8

const (
	// LayoutFused commits the AND rows, the XOR rows and the range rows as
	// regions of a single lookup table, so a single log-derivative argument
	// covers every query. This is the default.
	LayoutFused TableLayout = iota
	// LayoutSplit commits one table per primitive operation plus one range
	// table. Accepts and rejects exactly the same assignments as
	// [LayoutFused]; it exists as the reference layout.
	LayoutSplit
)

func (l TableLayout) String() string {
	switch l {
	case LayoutFused:
		return "fused"
	case LayoutSplit:
		return "split"
	default:
		return "unknown"
	}
}

type config struct {
	chunkWidth int
	layout     TableLayout
}

// Option configures the gadget returned by [New].
type Option func(*config) error

// WithChunkWidth sets the number of bits per lookup operand. Valid widths are
// 2, 4 and 8; the default is 8. Smaller widths shrink the committed tables at
// the cost of more lookups per word.
func WithChunkWidth(width int) Option {
	return func(c *config) error {
		switch width {
		case 2, 4, 8:
			c.chunkWidth = width
			return nil
		default:
			return fmt.Errorf("chunk width %d not in {2, 4, 8}", width)
		}
	}
}

// WithTableLayout sets the lookup table layout.
func WithTableLayout(layout TableLayout) Option {
	return func(c *config) error {
		if layout != LayoutFused && layout != LayoutSplit {
			return fmt.Errorf("unknown table layout %d", layout)
		}
		c.layout = layout
		return nil
	}
}

func defaultConfig() config {
	return config{chunkWidth: 8, layout: LayoutFused}
}

// tableEntries returns the fixed rows of the AND, XOR and range tables for
// the given chunk width. The operation tables are keyed by x*2^width + y and
// hold the result chunk; the range table is the identity on [0, 2^width).
// Kept as a pure function so row completeness is testable without building a
// circuit.
func tableEntries(chunkWidth int) (and, xor, rng []uint64) {
	n := uint64(1) << chunkWidth
	and = make([]uint64, n*n)
	xor = make([]uint64, n*n)
	rng = make([]uint64, n)
	for x := uint64(0); x < n; x++ {
		for y := uint64(0); y < n; y++ {
			and[x<<chunkWidth|y] = x & y
			xor[x<<chunkWidth|y] = x ^ y
		}
	}
	for j := uint64(0); j < n; j++ {
		rng[j] = j
	}
	return and, xor, rng
}

// tables holds the lookup tables of one (api, config) pair. Each table is
// built on its first query: a committed table must receive at least one
// query, and many circuits touch only a subset of the regions (an add-only
// circuit queries range rows but never the boolean ones).
type tables struct {
	api frontend.API
	cfg config

	// fused layout
	all              logderivlookup.Table
	xorOff, rangeOff int

	// split layout
	andT, xorT, rangeT logderivlookup.Table
}

func newTables(api frontend.API, cfg config) *tables {
	return &tables{api: api, cfg: cfg}
}

func (t *tables) logBuild(region string, rows int) {
	log := logger.Logger()
	log.Debug().
		Int("chunkWidth", t.cfg.chunkWidth).
		Stringer("layout", t.cfg.layout).
		Str("region", region).
		Int("rows", rows).
		Msg("building ripemd160 lookup table")
}

func insertAll(api frontend.API, rows []uint64) logderivlookup.Table {
	tbl := logderivlookup.New(api)
	for _, v := range rows {
		tbl.Insert(v)
	}
	return tbl
}

func (t *tables) fusedTable() logderivlookup.Table {
	if t.all == nil {
		and, xor, rng := tableEntries(t.cfg.chunkWidth)
		t.xorOff = len(and)
		t.rangeOff = len(and) + len(xor)
		rows := make([]uint64, 0, len(and)+len(xor)+len(rng))
		rows = append(rows, and...)
		rows = append(rows, xor...)
		rows = append(rows, rng...)
		t.all = insertAll(t.api, rows)
		t.logBuild("all", len(rows))
	}
	return t.all
}

func (t *tables) andTable() logderivlookup.Table {
	if t.andT == nil {
		and, _, _ := tableEntries(t.cfg.chunkWidth)
		t.andT = insertAll(t.api, and)
		t.logBuild("and", len(and))
	}
	return t.andT
}

func (t *tables) xorTable() logderivlookup.Table {
	if t.xorT == nil {
		_, xor, _ := tableEntries(t.cfg.chunkWidth)
		t.xorT = insertAll(t.api, xor)
		t.logBuild("xor", len(xor))
	}
	return t.xorT
}

func (t *tables) rangeTable() logderivlookup.Table {
	if t.rangeT == nil {
		_, _, rng := tableEntries(t.cfg.chunkWidth)
		t.rangeT = insertAll(t.api, rng)
		t.logBuild("range", len(rng))
	}
	return t.rangeT
}

// opIndex computes the row key of an operation table. The operands must
// already be range checked to the chunk width, otherwise the key could alias
// another row.
func (t *tables) opIndex(x, y frontend.Variable) frontend.Variable {
	return t.api.Add(t.api.Mul(x, 1<<t.cfg.chunkWidth), y)
}

func (t *tables) lookupAnd(x, y frontend.Variable) frontend.Variable {
	if t.cfg.layout == LayoutSplit {
		return t.andTable().Lookup(t.opIndex(x, y))[0]
	}
	return t.fusedTable().Lookup(t.opIndex(x, y))[0]
}

func (t *tables) lookupXor(x, y frontend.Variable) frontend.Variable {
	if t.cfg.layout == LayoutSplit {
		return t.xorTable().Lookup(t.opIndex(x, y))[0]
	}
	tbl := t.fusedTable()
	return tbl.Lookup(t.api.Add(t.opIndex(x, y), t.xorOff))[0]
}

// checkBits asserts v < 2^nbBits for nbBits up to the chunk width. The value
// is shifted into the top of the chunk domain so that a single range row
// lookup bounds it.
func (t *tables) checkBits(v frontend.Variable, nbBits int) {
	if nbBits > t.cfg.chunkWidth {
		panic("checkBits: width exceeds chunk width")
	}
	shifted := t.api.Mul(v, 1<<(t.cfg.chunkWidth-nbBits))
	var res frontend.Variable
	if t.cfg.layout == LayoutSplit {
		res = t.rangeTable().Lookup(shifted)[0]
	} else {
		tbl := t.fusedTable()
		res = tbl.Lookup(t.api.Add(shifted, t.rangeOff))[0]
	}
	// the table is the identity, so binding the result back to the query is
	// what forces the query into the domain
	t.api.AssertIsEqual(res, shifted)
}
