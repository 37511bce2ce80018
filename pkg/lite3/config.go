package lite3

import "fmt"

// Config controls node geometry and the safety limits of a document. It
// mirrors btree.Config/btree.DefaultConfig from the teaching exercise this
// module grew out of, extended with the hash-probing and context-sizing
// knobs the format needs.
type Config struct {
	// NodeSize is the fixed size in bytes of every B-tree node in the
	// document. Supported values are 48, 96 (default), 192, 384 and 768.
	NodeSize uint32
	// KeyCount (N) is the local key fanout per node, derived from NodeSize
	// via NodeSize = 12*N + 12.
	KeyCount uint32
	// MaxHeight bounds recursion depth for lookups and inserts, matching
	// NodeSize's preset (14/9/7/5/4 for 48/96/192/384/768). The iterator
	// uses its own fixed stack bound (maxHeightCap) instead.
	MaxHeight uint32
	// HashProbeMax bounds the number of quadratic-probe attempts before an
	// object key insert/lookup gives up with ErrInvalidArgument.
	HashProbeMax uint32
	// ContextMinSize is the initial capacity context.New uses when it is
	// called with minSize 0; a nonzero minSize below it is used as given.
	ContextMinSize uint32
	// BufSizeMax bounds how large an owning context is allowed to grow when
	// context.New is given no ceiling of its own.
	BufSizeMax uint32
	// ZeroExtra is not read by the allocator: alignment padding bytes are
	// never written and keep whatever the buffer already held.
	ZeroExtra bool
	// ZeroDeleted is not read by the mutation path: the bytes of a value
	// that is overwritten in place or relocated are left as they were.
	ZeroDeleted bool
	// DebugPrint is not read by this package; the DebugPrint function in
	// debug.go dumps the buffer whenever it is called.
	DebugPrint bool
}

// DefaultConfig is the 96-byte-node, 7-key, height-9 configuration used
// unless a caller asks for one of the other node-size presets.
var DefaultConfig = Config{
	NodeSize:       96,
	KeyCount:       7,
	MaxHeight:      9,
	HashProbeMax:   128,
	ContextMinSize: 1024,
	BufSizeMax:     1<<32 - 1,
}

type nodeSizePreset struct {
	n, height uint32
}

var nodeSizePresets = map[uint32]nodeSizePreset{
	48:  {n: 3, height: 14},
	96:  {n: 7, height: 9},
	192: {n: 15, height: 7},
	384: {n: 31, height: 5},
	768: {n: 63, height: 4},
}

// NodeSizeConfig returns the Config for one of the five supported node
// sizes, keeping every other field at its DefaultConfig value.
func NodeSizeConfig(nodeSize uint32) (Config, error) {
	preset, ok := nodeSizePresets[nodeSize]
	if !ok {
		return Config{}, fmt.Errorf("unsupported node size %d: %w", nodeSize, ErrInvalidArgument)
	}
	cfg := DefaultConfig
	cfg.NodeSize = nodeSize
	cfg.KeyCount = preset.n
	cfg.MaxHeight = preset.height
	return cfg, nil
}
