// Package buffer implements the externally-sized buffer front end: a Doc
// operates directly on a caller-provided byte slice and reports
// lite3.ErrOutOfSpace instead of growing when that slice runs out of room.
// pkg/context builds the owning, auto-growing wrapper on top of this type.
package buffer

import (
	"fmt"

	"github.com/fastserial/lite3/pkg/lite3"
)

// Doc is a Lite³ document view over a caller-owned, fixed-capacity byte
// slice. It never reallocates; every mutation that would overflow raw
// returns lite3.ErrOutOfSpace. A failed mutation still advances the
// generation counter, and Used() may have advanced past bytes it wrote.
type Doc struct {
	raw  []byte
	used uint32
	cfg  lite3.Config
	root uint32
}

// New initializes a fresh document over raw, rooted in an object or array
// depending on root. raw's capacity bounds how large the document can grow;
// len(raw) is ignored except as an upper bound (New treats the slice as
// empty space to allocate from).
func New(raw []byte, cfg lite3.Config, root lite3.Tag) (*Doc, error) {
	d := &Doc{raw: raw, cfg: cfg}
	var rootOfs uint32
	var err error
	switch root {
	case lite3.TagObject:
		rootOfs, err = lite3.InitObj(d.raw, &d.used, cfg)
	case lite3.TagArray:
		rootOfs, err = lite3.InitArr(d.raw, &d.used, cfg)
	default:
		return nil, fmt.Errorf("root must be object or array: %w", lite3.ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}
	if rootOfs != 0 {
		return nil, fmt.Errorf("document root must live at offset 0: %w", lite3.ErrCorruptBuffer)
	}
	d.root = rootOfs
	return d, nil
}

// Open wraps an existing, already-populated buffer without reinitializing
// it, for documents produced elsewhere (e.g. a blob fetched from pkg/store
// or a file mapped with pkg/diskbuf).
func Open(raw []byte, used uint32, cfg lite3.Config) *Doc {
	return &Doc{raw: raw, used: used, cfg: cfg, root: 0}
}

// Bytes returns the document's used bytes.
func (d *Doc) Bytes() []byte { return d.raw[:d.used] }

// Used returns the number of bytes currently in use.
func (d *Doc) Used() uint32 { return d.used }

// Cap returns the capacity of the underlying slice.
func (d *Doc) Cap() uint32 { return uint32(len(d.raw)) }

// Root returns the offset of the document root container.
func (d *Doc) Root() uint32 { return d.root }

// Config returns the document's node-geometry configuration.
func (d *Doc) Config() lite3.Config { return d.cfg }

// Generation returns the document-wide mutation counter.
func (d *Doc) Generation() uint32 { return lite3.Generation(d.raw) }

func (d *Doc) SetNull(container uint32, key string) error {
	return lite3.SetNull(d.raw, &d.used, d.cfg, container, key)
}
func (d *Doc) SetBool(container uint32, key string, v bool) error {
	return lite3.SetBool(d.raw, &d.used, d.cfg, container, key, v)
}
func (d *Doc) SetI64(container uint32, key string, v int64) error {
	return lite3.SetI64(d.raw, &d.used, d.cfg, container, key, v)
}
func (d *Doc) SetF64(container uint32, key string, v float64) error {
	return lite3.SetF64(d.raw, &d.used, d.cfg, container, key, v)
}
func (d *Doc) SetBytes(container uint32, key string, v []byte) error {
	return lite3.SetBytes(d.raw, &d.used, d.cfg, container, key, v)
}
func (d *Doc) SetString(container uint32, key, v string) error {
	return lite3.SetString(d.raw, &d.used, d.cfg, container, key, v)
}
func (d *Doc) SetObject(container uint32, key string) (uint32, error) {
	return lite3.SetObject(d.raw, &d.used, d.cfg, container, key)
}
func (d *Doc) SetArray(container uint32, key string) (uint32, error) {
	return lite3.SetArray(d.raw, &d.used, d.cfg, container, key)
}

func (d *Doc) GetBool(container uint32, key string) (bool, error) {
	return lite3.GetBool(d.raw, d.used, d.cfg, container, key)
}
func (d *Doc) GetI64(container uint32, key string) (int64, error) {
	return lite3.GetI64(d.raw, d.used, d.cfg, container, key)
}
func (d *Doc) GetF64(container uint32, key string) (float64, error) {
	return lite3.GetF64(d.raw, d.used, d.cfg, container, key)
}
func (d *Doc) GetBytes(container uint32, key string) ([]byte, error) {
	return lite3.GetBytes(d.raw, d.used, d.cfg, container, key)
}
func (d *Doc) GetString(container uint32, key string) (string, error) {
	return lite3.GetString(d.raw, d.used, d.cfg, container, key)
}
func (d *Doc) GetObject(container uint32, key string) (uint32, error) {
	return lite3.GetObject(d.raw, d.used, d.cfg, container, key)
}
func (d *Doc) GetArray(container uint32, key string) (uint32, error) {
	return lite3.GetArray(d.raw, d.used, d.cfg, container, key)
}
func (d *Doc) IsNull(container uint32, key string) (bool, error) {
	return lite3.IsNull(d.raw, d.used, d.cfg, container, key)
}
func (d *Doc) Exists(container uint32, key string) (bool, error) {
	return lite3.Exists(d.raw, d.used, d.cfg, container, key)
}
func (d *Doc) Count(container uint32) uint32 {
	return lite3.Count(d.raw, d.cfg, container)
}
func (d *Doc) Type(container uint32, key string) (lite3.Tag, error) {
	return lite3.Type(d.raw, d.used, d.cfg, container, key)
}
func (d *Doc) RootType() lite3.Tag {
	return lite3.RootType(d.raw)
}

func (d *Doc) ArrAppendNull(arr uint32) (uint32, error) {
	return lite3.ArrAppendNull(d.raw, &d.used, d.cfg, arr)
}
func (d *Doc) ArrAppendBool(arr uint32, v bool) (uint32, error) {
	return lite3.ArrAppendBool(d.raw, &d.used, d.cfg, arr, v)
}
func (d *Doc) ArrAppendI64(arr uint32, v int64) (uint32, error) {
	return lite3.ArrAppendI64(d.raw, &d.used, d.cfg, arr, v)
}
func (d *Doc) ArrAppendF64(arr uint32, v float64) (uint32, error) {
	return lite3.ArrAppendF64(d.raw, &d.used, d.cfg, arr, v)
}
func (d *Doc) ArrAppendBytes(arr uint32, v []byte) (uint32, error) {
	return lite3.ArrAppendBytes(d.raw, &d.used, d.cfg, arr, v)
}
func (d *Doc) ArrAppendString(arr uint32, v string) (uint32, error) {
	return lite3.ArrAppendString(d.raw, &d.used, d.cfg, arr, v)
}
func (d *Doc) ArrAppendObject(arr uint32) (uint32, error) {
	return lite3.ArrAppendObject(d.raw, &d.used, d.cfg, arr)
}
func (d *Doc) ArrAppendArray(arr uint32) (uint32, error) {
	return lite3.ArrAppendArray(d.raw, &d.used, d.cfg, arr)
}

func (d *Doc) ArrSetNull(arr, idx uint32) error { return lite3.ArrSetNull(d.raw, &d.used, d.cfg, arr, idx) }
func (d *Doc) ArrSetBool(arr, idx uint32, v bool) error {
	return lite3.ArrSetBool(d.raw, &d.used, d.cfg, arr, idx, v)
}
func (d *Doc) ArrSetI64(arr, idx uint32, v int64) error {
	return lite3.ArrSetI64(d.raw, &d.used, d.cfg, arr, idx, v)
}
func (d *Doc) ArrSetF64(arr, idx uint32, v float64) error {
	return lite3.ArrSetF64(d.raw, &d.used, d.cfg, arr, idx, v)
}
func (d *Doc) ArrSetBytes(arr, idx uint32, v []byte) error {
	return lite3.ArrSetBytes(d.raw, &d.used, d.cfg, arr, idx, v)
}
func (d *Doc) ArrSetString(arr, idx uint32, v string) error {
	return lite3.ArrSetString(d.raw, &d.used, d.cfg, arr, idx, v)
}

func (d *Doc) ArrGetBool(arr, idx uint32) (bool, error) { return lite3.ArrGetBool(d.raw, d.cfg, arr, idx) }
func (d *Doc) ArrGetI64(arr, idx uint32) (int64, error) { return lite3.ArrGetI64(d.raw, d.cfg, arr, idx) }
func (d *Doc) ArrGetF64(arr, idx uint32) (float64, error) {
	return lite3.ArrGetF64(d.raw, d.cfg, arr, idx)
}
func (d *Doc) ArrGetBytes(arr, idx uint32) ([]byte, error) {
	return lite3.ArrGetBytes(d.raw, d.cfg, arr, idx)
}
func (d *Doc) ArrGetString(arr, idx uint32) (string, error) {
	return lite3.ArrGetString(d.raw, d.cfg, arr, idx)
}
func (d *Doc) ArrGetObject(arr, idx uint32) (uint32, error) {
	return lite3.ArrGetObject(d.raw, d.cfg, arr, idx)
}
func (d *Doc) ArrGetArray(arr, idx uint32) (uint32, error) {
	return lite3.ArrGetArray(d.raw, d.cfg, arr, idx)
}
func (d *Doc) ArrType(arr, idx uint32) (lite3.Tag, error) { return lite3.ArrType(d.raw, d.cfg, arr, idx) }

// Iterate returns an iterator over the container rooted at container.
func (d *Doc) Iterate(container uint32) *lite3.Iterator {
	return lite3.NewIterator(d.raw, d.used, d.cfg, container)
}
