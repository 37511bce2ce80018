package lite3

import "fmt"

// setObjectValue inserts or updates key in the object rooted at
// containerOfs with a value record of size bytes produced by writer. On an
// update whose new value fits within the old record's footprint, the value
// is overwritten in place; otherwise a fresh [key][value] entry is appended
// at the buffer tail and the tree slot is repointed at it. It returns the
// offset of the value record that was written.
func setObjectValue(raw []byte, used *uint32, cfg Config, containerOfs uint32, key string, size uint32, writer func([]byte, uint32)) (uint32, error) {
	// Every call bumps the generation counter exactly once, success or
	// failure: a failed mutation attempt still invalidates outstanding
	// iterators, since the caller may have partially observed buffer state.
	defer bumpGeneration(raw)

	if len(key) == 0 {
		return 0, fmt.Errorf("object key cannot be empty: %w", ErrInvalidArgument)
	}
	kd := hashKey(key)
	for i := uint32(0); i < cfg.HashProbeMax; i++ {
		h := kd.hash + i*i
		nodeOfs, idx, kvOfs, found, err := treeFindSlot(raw, cfg, containerOfs, h, 0)
		if err != nil {
			return 0, err
		}
		if !found {
			entryOfs, err := allocEntry(raw, used, cfg, key, size, writer)
			if err != nil {
				return 0, err
			}
			if err := treeInsertRoot(raw, used, cfg, containerOfs, h, entryOfs); err != nil {
				return 0, err
			}
			return entryOfs + keyRecordSize(key), nil
		}

		storedKey, valOfs, err := readKeyRecord(raw, *used, kvOfs)
		if err != nil {
			return 0, err
		}
		if storedKey != key {
			continue
		}
		oldSize, err := peekValueRecordSize(raw, *used, cfg, valOfs)
		if err != nil {
			return 0, err
		}
		if size <= oldSize {
			writer(raw, valOfs)
			return valOfs, nil
		}
		newEntryOfs, err := allocEntry(raw, used, cfg, key, size, writer)
		if err != nil {
			return 0, err
		}
		nodeAt(raw, nodeOfs, cfg.KeyCount).setKvOfs(idx, newEntryOfs)
		return newEntryOfs + keyRecordSize(key), nil
	}
	return 0, fmt.Errorf("hash probe exhausted for key %q: %w", key, ErrInvalidArgument)
}

// getObjectValOfs resolves key to the offset of its value record, following
// the same quadratic probe sequence setObjectValue uses to place it.
func getObjectValOfs(raw []byte, used uint32, cfg Config, containerOfs uint32, key string) (uint32, error) {
	kd := hashKey(key)
	for i := uint32(0); i < cfg.HashProbeMax; i++ {
		h := kd.hash + i*i
		_, _, kvOfs, found, err := treeFindSlot(raw, cfg, containerOfs, h, 0)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, fmt.Errorf("key %q: %w", key, ErrNotFound)
		}
		storedKey, valOfs, err := readKeyRecord(raw, used, kvOfs)
		if err != nil {
			return 0, err
		}
		if storedKey == key {
			return valOfs, nil
		}
	}
	return 0, fmt.Errorf("hash probe exhausted for key %q: %w", key, ErrInvalidArgument)
}

func SetNull(raw []byte, used *uint32, cfg Config, containerOfs uint32, key string) error {
	_, err := setObjectValue(raw, used, cfg, containerOfs, key, 1, encodeNull)
	return err
}

func SetBool(raw []byte, used *uint32, cfg Config, containerOfs uint32, key string, v bool) error {
	_, err := setObjectValue(raw, used, cfg, containerOfs, key, 2, func(b []byte, o uint32) { encodeBool(b, o, v) })
	return err
}

func SetI64(raw []byte, used *uint32, cfg Config, containerOfs uint32, key string, v int64) error {
	_, err := setObjectValue(raw, used, cfg, containerOfs, key, 9, func(b []byte, o uint32) { encodeI64(b, o, v) })
	return err
}

func SetF64(raw []byte, used *uint32, cfg Config, containerOfs uint32, key string, v float64) error {
	_, err := setObjectValue(raw, used, cfg, containerOfs, key, 9, func(b []byte, o uint32) { encodeF64(b, o, v) })
	return err
}

func SetBytes(raw []byte, used *uint32, cfg Config, containerOfs uint32, key string, v []byte) error {
	_, err := setObjectValue(raw, used, cfg, containerOfs, key, uint32(5+len(v)), func(b []byte, o uint32) { encodeBytes(b, o, v) })
	return err
}

func SetString(raw []byte, used *uint32, cfg Config, containerOfs uint32, key string, v string) error {
	_, err := setObjectValue(raw, used, cfg, containerOfs, key, uint32(5+len(v)+1), func(b []byte, o uint32) { encodeString(b, o, v) })
	return err
}

func SetObject(raw []byte, used *uint32, cfg Config, containerOfs uint32, key string) (uint32, error) {
	return setObjectValue(raw, used, cfg, containerOfs, key, cfg.NodeSize, func(b []byte, o uint32) {
		clear(b[o : o+cfg.NodeSize])
		nodeAt(b, o, cfg.KeyCount).setHeader(uint32(TagObject))
	})
}

func SetArray(raw []byte, used *uint32, cfg Config, containerOfs uint32, key string) (uint32, error) {
	return setObjectValue(raw, used, cfg, containerOfs, key, cfg.NodeSize, func(b []byte, o uint32) {
		clear(b[o : o+cfg.NodeSize])
		nodeAt(b, o, cfg.KeyCount).setHeader(uint32(TagArray))
	})
}

func GetBool(raw []byte, used uint32, cfg Config, containerOfs uint32, key string) (bool, error) {
	ofs, err := getObjectValOfs(raw, used, cfg, containerOfs, key)
	if err != nil {
		return false, err
	}
	return decodeBool(raw, ofs)
}

func GetI64(raw []byte, used uint32, cfg Config, containerOfs uint32, key string) (int64, error) {
	ofs, err := getObjectValOfs(raw, used, cfg, containerOfs, key)
	if err != nil {
		return 0, err
	}
	return decodeI64(raw, ofs)
}

func GetF64(raw []byte, used uint32, cfg Config, containerOfs uint32, key string) (float64, error) {
	ofs, err := getObjectValOfs(raw, used, cfg, containerOfs, key)
	if err != nil {
		return 0, err
	}
	return decodeF64(raw, ofs)
}

func GetBytes(raw []byte, used uint32, cfg Config, containerOfs uint32, key string) ([]byte, error) {
	ofs, err := getObjectValOfs(raw, used, cfg, containerOfs, key)
	if err != nil {
		return nil, err
	}
	return decodeBytes(raw, ofs)
}

func GetString(raw []byte, used uint32, cfg Config, containerOfs uint32, key string) (string, error) {
	ofs, err := getObjectValOfs(raw, used, cfg, containerOfs, key)
	if err != nil {
		return "", err
	}
	return decodeString(raw, ofs)
}

func GetObject(raw []byte, used uint32, cfg Config, containerOfs uint32, key string) (uint32, error) {
	ofs, err := getObjectValOfs(raw, used, cfg, containerOfs, key)
	if err != nil {
		return 0, err
	}
	if Tag(raw[ofs]) != TagObject {
		return 0, fmt.Errorf("key %q is not an object: %w", key, ErrInvalidArgument)
	}
	return ofs, nil
}

func GetArray(raw []byte, used uint32, cfg Config, containerOfs uint32, key string) (uint32, error) {
	ofs, err := getObjectValOfs(raw, used, cfg, containerOfs, key)
	if err != nil {
		return 0, err
	}
	if Tag(raw[ofs]) != TagArray {
		return 0, fmt.Errorf("key %q is not an array: %w", key, ErrInvalidArgument)
	}
	return ofs, nil
}

func IsNull(raw []byte, used uint32, cfg Config, containerOfs uint32, key string) (bool, error) {
	t, err := Type(raw, used, cfg, containerOfs, key)
	if err != nil {
		return false, err
	}
	return t == TagNull, nil
}

// Exists reports whether key is present in the object rooted at
// containerOfs.
func Exists(raw []byte, used uint32, cfg Config, containerOfs uint32, key string) (bool, error) {
	_, err := getObjectValOfs(raw, used, cfg, containerOfs, key)
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Count returns the total number of entries in the subtree rooted at
// containerOfs.
func Count(raw []byte, cfg Config, containerOfs uint32) uint32 {
	return nodeAt(raw, containerOfs, cfg.KeyCount).subtreeCount()
}

// Type returns the value tag stored under key in the object rooted at
// containerOfs.
func Type(raw []byte, used uint32, cfg Config, containerOfs uint32, key string) (Tag, error) {
	ofs, err := getObjectValOfs(raw, used, cfg, containerOfs, key)
	if err != nil {
		return tagInvalid, err
	}
	return Tag(raw[ofs]), nil
}

// RootType returns the document root's container type.
func RootType(raw []byte) Tag {
	if len(raw) == 0 {
		return tagInvalid
	}
	return Tag(raw[0] & 0xFF)
}
