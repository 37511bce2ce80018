package lite3

import "fmt"

// Array elements use their own index as the node hash directly: there is no
// key record and no probing (Pmax=1), since an index can never collide with
// another index the way two distinct key strings can hash to the same
// bucket.

func arrCount(raw []byte, cfg Config, arrOfs uint32) uint32 {
	return nodeAt(raw, arrOfs, cfg.KeyCount).subtreeCount()
}

// arrAppendValue does the actual append work shared by ArrAppendValue and
// ArrSetValue's append-on-idx-equals-count path. It does not bump the
// generation counter itself; callers own that so an append reached through
// ArrSetValue bumps exactly once.
func arrAppendValue(raw []byte, used *uint32, cfg Config, arrOfs uint32, size uint32, writer func([]byte, uint32)) (uint32, error) {
	idx := arrCount(raw, cfg, arrOfs)
	valOfs, err := alloc(raw, used, size)
	if err != nil {
		return 0, err
	}
	writer(raw, valOfs)
	if err := treeInsertRoot(raw, used, cfg, arrOfs, idx, valOfs); err != nil {
		return 0, err
	}
	return idx, nil
}

// ArrAppendValue appends a new element of size bytes, written by writer, to
// the end of the array rooted at arrOfs, returning its index.
func ArrAppendValue(raw []byte, used *uint32, cfg Config, arrOfs uint32, size uint32, writer func([]byte, uint32)) (uint32, error) {
	defer bumpGeneration(raw)
	return arrAppendValue(raw, used, cfg, arrOfs, size, writer)
}

// ArrSetValue writes a size-byte value, produced by writer, at idx. idx
// equal to the array's current length is an append; idx greater than the
// current length fails invalid-argument rather than leaving a gap.
func ArrSetValue(raw []byte, used *uint32, cfg Config, arrOfs uint32, idx uint32, size uint32, writer func([]byte, uint32)) error {
	defer bumpGeneration(raw)

	count := arrCount(raw, cfg, arrOfs)
	if idx == count {
		_, err := arrAppendValue(raw, used, cfg, arrOfs, size, writer)
		return err
	}
	if idx > count {
		return fmt.Errorf("index %d exceeds array length %d: %w", idx, count, ErrInvalidArgument)
	}

	nodeOfs, slot, valOfs, found, err := treeFindSlot(raw, cfg, arrOfs, idx, 0)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("index %d: %w", idx, ErrNotFound)
	}
	oldSize, err := peekValueRecordSize(raw, *used, cfg, valOfs)
	if err != nil {
		return err
	}
	if size <= oldSize {
		writer(raw, valOfs)
		return nil
	}
	newOfs, err := alloc(raw, used, size)
	if err != nil {
		return err
	}
	writer(raw, newOfs)
	nodeAt(raw, nodeOfs, cfg.KeyCount).setKvOfs(slot, newOfs)
	return nil
}

// ArrGetValOfs resolves idx to its value record's offset.
func ArrGetValOfs(raw []byte, cfg Config, arrOfs uint32, idx uint32) (uint32, error) {
	_, _, valOfs, found, err := treeFindSlot(raw, cfg, arrOfs, idx, 0)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("index %d: %w", idx, ErrNotFound)
	}
	return valOfs, nil
}

func ArrAppendNull(raw []byte, used *uint32, cfg Config, arrOfs uint32) (uint32, error) {
	return ArrAppendValue(raw, used, cfg, arrOfs, 1, encodeNull)
}

func ArrAppendBool(raw []byte, used *uint32, cfg Config, arrOfs uint32, v bool) (uint32, error) {
	return ArrAppendValue(raw, used, cfg, arrOfs, 2, func(b []byte, o uint32) { encodeBool(b, o, v) })
}

func ArrAppendI64(raw []byte, used *uint32, cfg Config, arrOfs uint32, v int64) (uint32, error) {
	return ArrAppendValue(raw, used, cfg, arrOfs, 9, func(b []byte, o uint32) { encodeI64(b, o, v) })
}

func ArrAppendF64(raw []byte, used *uint32, cfg Config, arrOfs uint32, v float64) (uint32, error) {
	return ArrAppendValue(raw, used, cfg, arrOfs, 9, func(b []byte, o uint32) { encodeF64(b, o, v) })
}

func ArrAppendBytes(raw []byte, used *uint32, cfg Config, arrOfs uint32, v []byte) (uint32, error) {
	return ArrAppendValue(raw, used, cfg, arrOfs, uint32(5+len(v)), func(b []byte, o uint32) { encodeBytes(b, o, v) })
}

func ArrAppendString(raw []byte, used *uint32, cfg Config, arrOfs uint32, v string) (uint32, error) {
	return ArrAppendValue(raw, used, cfg, arrOfs, uint32(5+len(v)+1), func(b []byte, o uint32) { encodeString(b, o, v) })
}

func ArrAppendObject(raw []byte, used *uint32, cfg Config, arrOfs uint32) (uint32, error) {
	return ArrAppendValue(raw, used, cfg, arrOfs, cfg.NodeSize, func(b []byte, o uint32) {
		clear(b[o : o+cfg.NodeSize])
		nodeAt(b, o, cfg.KeyCount).setHeader(uint32(TagObject))
	})
}

func ArrAppendArray(raw []byte, used *uint32, cfg Config, arrOfs uint32) (uint32, error) {
	return ArrAppendValue(raw, used, cfg, arrOfs, cfg.NodeSize, func(b []byte, o uint32) {
		clear(b[o : o+cfg.NodeSize])
		nodeAt(b, o, cfg.KeyCount).setHeader(uint32(TagArray))
	})
}

func ArrSetNull(raw []byte, used *uint32, cfg Config, arrOfs uint32, idx uint32) error {
	return ArrSetValue(raw, used, cfg, arrOfs, idx, 1, encodeNull)
}

func ArrSetBool(raw []byte, used *uint32, cfg Config, arrOfs uint32, idx uint32, v bool) error {
	return ArrSetValue(raw, used, cfg, arrOfs, idx, 2, func(b []byte, o uint32) { encodeBool(b, o, v) })
}

func ArrSetI64(raw []byte, used *uint32, cfg Config, arrOfs uint32, idx uint32, v int64) error {
	return ArrSetValue(raw, used, cfg, arrOfs, idx, 9, func(b []byte, o uint32) { encodeI64(b, o, v) })
}

func ArrSetF64(raw []byte, used *uint32, cfg Config, arrOfs uint32, idx uint32, v float64) error {
	return ArrSetValue(raw, used, cfg, arrOfs, idx, 9, func(b []byte, o uint32) { encodeF64(b, o, v) })
}

func ArrSetBytes(raw []byte, used *uint32, cfg Config, arrOfs uint32, idx uint32, v []byte) error {
	return ArrSetValue(raw, used, cfg, arrOfs, idx, uint32(5+len(v)), func(b []byte, o uint32) { encodeBytes(b, o, v) })
}

func ArrSetString(raw []byte, used *uint32, cfg Config, arrOfs uint32, idx uint32, v string) error {
	return ArrSetValue(raw, used, cfg, arrOfs, idx, uint32(5+len(v)+1), func(b []byte, o uint32) { encodeString(b, o, v) })
}

func ArrGetBool(raw []byte, cfg Config, arrOfs uint32, idx uint32) (bool, error) {
	ofs, err := ArrGetValOfs(raw, cfg, arrOfs, idx)
	if err != nil {
		return false, err
	}
	return decodeBool(raw, ofs)
}

func ArrGetI64(raw []byte, cfg Config, arrOfs uint32, idx uint32) (int64, error) {
	ofs, err := ArrGetValOfs(raw, cfg, arrOfs, idx)
	if err != nil {
		return 0, err
	}
	return decodeI64(raw, ofs)
}

func ArrGetF64(raw []byte, cfg Config, arrOfs uint32, idx uint32) (float64, error) {
	ofs, err := ArrGetValOfs(raw, cfg, arrOfs, idx)
	if err != nil {
		return 0, err
	}
	return decodeF64(raw, ofs)
}

func ArrGetBytes(raw []byte, cfg Config, arrOfs uint32, idx uint32) ([]byte, error) {
	ofs, err := ArrGetValOfs(raw, cfg, arrOfs, idx)
	if err != nil {
		return nil, err
	}
	return decodeBytes(raw, ofs)
}

func ArrGetString(raw []byte, cfg Config, arrOfs uint32, idx uint32) (string, error) {
	ofs, err := ArrGetValOfs(raw, cfg, arrOfs, idx)
	if err != nil {
		return "", err
	}
	return decodeString(raw, ofs)
}

func ArrGetObject(raw []byte, cfg Config, arrOfs uint32, idx uint32) (uint32, error) {
	ofs, err := ArrGetValOfs(raw, cfg, arrOfs, idx)
	if err != nil {
		return 0, err
	}
	if Tag(raw[ofs]) != TagObject {
		return 0, fmt.Errorf("index %d is not an object: %w", idx, ErrInvalidArgument)
	}
	return ofs, nil
}

func ArrGetArray(raw []byte, cfg Config, arrOfs uint32, idx uint32) (uint32, error) {
	ofs, err := ArrGetValOfs(raw, cfg, arrOfs, idx)
	if err != nil {
		return 0, err
	}
	if Tag(raw[ofs]) != TagArray {
		return 0, fmt.Errorf("index %d is not an array: %w", idx, ErrInvalidArgument)
	}
	return ofs, nil
}

// ArrType returns the value tag stored at idx.
func ArrType(raw []byte, cfg Config, arrOfs uint32, idx uint32) (Tag, error) {
	ofs, err := ArrGetValOfs(raw, cfg, arrOfs, idx)
	if err != nil {
		return tagInvalid, err
	}
	return Tag(raw[ofs]), nil
}
