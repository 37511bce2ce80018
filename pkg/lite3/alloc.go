package lite3

import "fmt"

func alignUp4(x uint32) uint32 { return (x + 3) &^ 3 }

// alloc bump-allocates n bytes at the tail of the buffer, 4-byte aligned,
// advancing *used. Lite³ never reclaims space: overwritten and relocated
// records are simply left behind as dead bytes.
func alloc(raw []byte, used *uint32, n uint32) (uint32, error) {
	ofs := alignUp4(*used)
	need := ofs + n
	if need < ofs || need > uint32(len(raw)) {
		return 0, fmt.Errorf("need %d bytes at offset %d: %w", n, ofs, ErrOutOfSpace)
	}
	*used = need
	return ofs, nil
}

func allocNode(raw []byte, used *uint32, cfg Config) (uint32, error) {
	ofs, err := alloc(raw, used, cfg.NodeSize)
	if err != nil {
		return 0, err
	}
	clear(raw[ofs : ofs+cfg.NodeSize])
	return ofs, nil
}

// allocEntry allocates and writes a [key record][value record] pair at the
// tail of the buffer and returns the key record's offset. Padding goes in
// front of the key record so that the value record starts 4-byte aligned,
// which a nested object or array node requires.
func allocEntry(raw []byte, used *uint32, cfg Config, key string, size uint32, writer func([]byte, uint32)) (uint32, error) {
	keySize := keyRecordSize(key)
	pad := (4 - keySize%4) % 4
	ofs, err := alloc(raw, used, pad+keySize+size)
	if err != nil {
		return 0, err
	}
	ofs += pad
	writeKeyRecord(raw, ofs, key)
	writer(raw, ofs+keySize)
	return ofs, nil
}
