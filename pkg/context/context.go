// Package context implements the owning, auto-growing front end: a
// Context holds its own backing slice and, on lite3.ErrOutOfSpace,
// reallocates to a larger one and retries the mutation, repeating until it
// succeeds or growth reaches its ceiling, mirroring the grow-and-retry
// policy of the original ctx_api.c grow path.
package context

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/fastserial/lite3/pkg/buffer"
	"github.com/fastserial/lite3/pkg/lite3"
)

// growthFactor is how much a Context's backing buffer multiplies by each
// time a mutation reports ErrOutOfSpace.
const growthFactor = 4

// Context owns a growable byte slice wrapped as a buffer.Doc. Every mutating
// call first attempts to run on the current buffer; on ErrOutOfSpace it
// grows the buffer and replays the mutation before giving up.
type Context struct {
	doc     *buffer.Doc
	cfg     lite3.Config
	root    lite3.Tag
	ceiling uint32
}

// New creates a Context with an initial capacity of at least minSize bytes
// (bumped up to fit a single root node if minSize is smaller than that),
// growing by growthFactor on overflow up to ceiling bytes (0 means the
// ceiling is cfg.BufSizeMax).
func New(cfg lite3.Config, root lite3.Tag, minSize, ceiling uint32) (*Context, error) {
	if minSize == 0 {
		minSize = cfg.ContextMinSize
	}
	if minSize < cfg.NodeSize {
		minSize = cfg.NodeSize
	}
	c := &Context{cfg: cfg, root: root, ceiling: ceiling}
	size := minSize
	for {
		doc, err := buffer.New(make([]byte, size), cfg, root)
		if err == nil {
			c.doc = doc
			return c, nil
		}
		if !errors.Is(err, lite3.ErrOutOfSpace) {
			return nil, err
		}
		if ceiling != 0 && size >= ceiling {
			return nil, err
		}
		size *= growthFactor
		if ceiling != 0 && size > ceiling {
			size = ceiling
		}
	}
}

// FromBytes wraps a copy of src as an already-populated Context, for
// documents loaded from storage. The copy's capacity is the smallest power
// of two that holds src. The Context takes ownership of its own copy; src
// is left untouched.
func FromBytes(src []byte, cfg lite3.Config, ceiling uint32) *Context {
	size := len(src)
	if size > 1 {
		size = 1 << bits.Len(uint(size-1))
	}
	raw := make([]byte, size)
	copy(raw, src)
	used := uint32(len(src))
	return &Context{doc: buffer.Open(raw, used, cfg), cfg: cfg, root: lite3.RootType(raw), ceiling: ceiling}
}

// Bytes returns the document's used bytes.
func (c *Context) Bytes() []byte { return c.doc.Bytes() }

// Root returns the offset of the document root container.
func (c *Context) Root() uint32 { return c.doc.Root() }

// Generation returns the document-wide mutation counter.
func (c *Context) Generation() uint32 { return c.doc.Generation() }

// Doc exposes the underlying fixed-capacity view for read-only operations
// and iteration, which never need to grow.
func (c *Context) Doc() *buffer.Doc { return c.doc }

func (c *Context) grow() error {
	ceiling := c.ceiling
	if ceiling == 0 {
		ceiling = c.cfg.BufSizeMax
	}
	oldCap := c.doc.Cap()
	newCap := uint64(oldCap) * growthFactor
	if newCap == 0 {
		newCap = uint64(c.cfg.ContextMinSize)
	}
	if ceiling != 0 && newCap > uint64(ceiling) {
		if oldCap >= ceiling {
			return fmt.Errorf("context already at growth ceiling %d bytes: %w", ceiling, lite3.ErrMessageTooLarge)
		}
		newCap = uint64(ceiling)
	}
	grown := make([]byte, newCap)
	copy(grown, c.doc.Bytes())
	c.doc = buffer.Open(grown, c.doc.Used(), c.cfg)
	return nil
}

// retry runs fn; on ErrOutOfSpace it grows the buffer once and runs fn
// again, repeating until fn succeeds, growth hits its ceiling (reported as
// lite3.ErrMessageTooLarge), or fn fails with a different error.
func (c *Context) retry(fn func() error) error {
	for {
		err := fn()
		if err == nil || !errors.Is(err, lite3.ErrOutOfSpace) {
			return err
		}
		if growErr := c.grow(); growErr != nil {
			return growErr
		}
	}
}

func (c *Context) SetNull(container uint32, key string) error {
	return c.retry(func() error { return c.doc.SetNull(container, key) })
}
func (c *Context) SetBool(container uint32, key string, v bool) error {
	return c.retry(func() error { return c.doc.SetBool(container, key, v) })
}
func (c *Context) SetI64(container uint32, key string, v int64) error {
	return c.retry(func() error { return c.doc.SetI64(container, key, v) })
}
func (c *Context) SetF64(container uint32, key string, v float64) error {
	return c.retry(func() error { return c.doc.SetF64(container, key, v) })
}
func (c *Context) SetBytes(container uint32, key string, v []byte) error {
	return c.retry(func() error { return c.doc.SetBytes(container, key, v) })
}
func (c *Context) SetString(container uint32, key, v string) error {
	return c.retry(func() error { return c.doc.SetString(container, key, v) })
}

func (c *Context) SetObject(container uint32, key string) (uint32, error) {
	var ofs uint32
	err := c.retry(func() error {
		var innerErr error
		ofs, innerErr = c.doc.SetObject(container, key)
		return innerErr
	})
	return ofs, err
}

func (c *Context) SetArray(container uint32, key string) (uint32, error) {
	var ofs uint32
	err := c.retry(func() error {
		var innerErr error
		ofs, innerErr = c.doc.SetArray(container, key)
		return innerErr
	})
	return ofs, err
}

func (c *Context) ArrAppendNull(arr uint32) (uint32, error) {
	return arrGrow(c, func() (uint32, error) { return c.doc.ArrAppendNull(arr) })
}
func (c *Context) ArrAppendBool(arr uint32, v bool) (uint32, error) {
	return arrGrow(c, func() (uint32, error) { return c.doc.ArrAppendBool(arr, v) })
}
func (c *Context) ArrAppendI64(arr uint32, v int64) (uint32, error) {
	return arrGrow(c, func() (uint32, error) { return c.doc.ArrAppendI64(arr, v) })
}
func (c *Context) ArrAppendF64(arr uint32, v float64) (uint32, error) {
	return arrGrow(c, func() (uint32, error) { return c.doc.ArrAppendF64(arr, v) })
}
func (c *Context) ArrAppendBytes(arr uint32, v []byte) (uint32, error) {
	return arrGrow(c, func() (uint32, error) { return c.doc.ArrAppendBytes(arr, v) })
}
func (c *Context) ArrAppendString(arr uint32, v string) (uint32, error) {
	return arrGrow(c, func() (uint32, error) { return c.doc.ArrAppendString(arr, v) })
}
func (c *Context) ArrAppendObject(arr uint32) (uint32, error) {
	return arrGrow(c, func() (uint32, error) { return c.doc.ArrAppendObject(arr) })
}
func (c *Context) ArrAppendArray(arr uint32) (uint32, error) {
	return arrGrow(c, func() (uint32, error) { return c.doc.ArrAppendArray(arr) })
}

func arrGrow(c *Context, fn func() (uint32, error)) (uint32, error) {
	var ofs uint32
	err := c.retry(func() error {
		var innerErr error
		ofs, innerErr = fn()
		return innerErr
	})
	return ofs, err
}

func (c *Context) ArrSetNull(arr, idx uint32) error {
	return c.retry(func() error { return c.doc.ArrSetNull(arr, idx) })
}
func (c *Context) ArrSetBool(arr, idx uint32, v bool) error {
	return c.retry(func() error { return c.doc.ArrSetBool(arr, idx, v) })
}
func (c *Context) ArrSetI64(arr, idx uint32, v int64) error {
	return c.retry(func() error { return c.doc.ArrSetI64(arr, idx, v) })
}
func (c *Context) ArrSetF64(arr, idx uint32, v float64) error {
	return c.retry(func() error { return c.doc.ArrSetF64(arr, idx, v) })
}
func (c *Context) ArrSetBytes(arr, idx uint32, v []byte) error {
	return c.retry(func() error { return c.doc.ArrSetBytes(arr, idx, v) })
}
func (c *Context) ArrSetString(arr, idx uint32, v string) error {
	return c.retry(func() error { return c.doc.ArrSetString(arr, idx, v) })
}

// Read-only operations pass straight through; they never grow the buffer.
func (c *Context) GetBool(container uint32, key string) (bool, error) { return c.doc.GetBool(container, key) }
func (c *Context) GetI64(container uint32, key string) (int64, error) { return c.doc.GetI64(container, key) }
func (c *Context) GetF64(container uint32, key string) (float64, error) {
	return c.doc.GetF64(container, key)
}
func (c *Context) GetBytes(container uint32, key string) ([]byte, error) {
	return c.doc.GetBytes(container, key)
}
func (c *Context) GetString(container uint32, key string) (string, error) {
	return c.doc.GetString(container, key)
}
func (c *Context) GetObject(container uint32, key string) (uint32, error) {
	return c.doc.GetObject(container, key)
}
func (c *Context) GetArray(container uint32, key string) (uint32, error) {
	return c.doc.GetArray(container, key)
}
func (c *Context) IsNull(container uint32, key string) (bool, error) { return c.doc.IsNull(container, key) }
func (c *Context) Exists(container uint32, key string) (bool, error) { return c.doc.Exists(container, key) }
func (c *Context) Count(container uint32) uint32                     { return c.doc.Count(container) }
func (c *Context) Type(container uint32, key string) (lite3.Tag, error) {
	return c.doc.Type(container, key)
}
func (c *Context) RootType() lite3.Tag { return c.doc.RootType() }

func (c *Context) ArrGetBool(arr, idx uint32) (bool, error)  { return c.doc.ArrGetBool(arr, idx) }
func (c *Context) ArrGetI64(arr, idx uint32) (int64, error)  { return c.doc.ArrGetI64(arr, idx) }
func (c *Context) ArrGetF64(arr, idx uint32) (float64, error) {
	return c.doc.ArrGetF64(arr, idx)
}
func (c *Context) ArrGetBytes(arr, idx uint32) ([]byte, error) { return c.doc.ArrGetBytes(arr, idx) }
func (c *Context) ArrGetString(arr, idx uint32) (string, error) {
	return c.doc.ArrGetString(arr, idx)
}
func (c *Context) ArrGetObject(arr, idx uint32) (uint32, error) { return c.doc.ArrGetObject(arr, idx) }
func (c *Context) ArrGetArray(arr, idx uint32) (uint32, error)  { return c.doc.ArrGetArray(arr, idx) }
func (c *Context) ArrType(arr, idx uint32) (lite3.Tag, error)   { return c.doc.ArrType(arr, idx) }

// Iterate returns an iterator over the container rooted at container. The
// iterator is invalidated by any subsequent mutation, including one that
// triggers a grow-and-replay cycle.
func (c *Context) Iterate(container uint32) *lite3.Iterator {
	return c.doc.Iterate(container)
}
