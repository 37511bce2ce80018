package lite3

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fastserial/lite3/pkg/lite3/internal/fuzzutil"
)

func newDoc(t *testing.T, root Tag) ([]byte, *uint32, Config, uint32) {
	t.Helper()
	cfg := DefaultConfig
	raw := make([]byte, 1<<20)
	var used uint32
	var ofs uint32
	var err error
	switch root {
	case TagObject:
		ofs, err = InitObj(raw, &used, cfg)
	case TagArray:
		ofs, err = InitArr(raw, &used, cfg)
	}
	require.NoError(t, err)
	require.Zero(t, ofs, "document root must live at offset 0")
	return raw, &used, cfg, ofs
}

// TestScalarRoundTrip verifies each scalar type survives a set/get cycle
// unchanged.
func TestScalarRoundTrip(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)

	require.NoError(t, SetBool(raw, used, cfg, root, "flag", true))
	require.NoError(t, SetI64(raw, used, cfg, root, "count", -42))
	require.NoError(t, SetF64(raw, used, cfg, root, "ratio", 3.5))
	require.NoError(t, SetString(raw, used, cfg, root, "name", "lite3"))
	require.NoError(t, SetBytes(raw, used, cfg, root, "blob", []byte{1, 2, 3}))
	require.NoError(t, SetNull(raw, used, cfg, root, "nothing"))

	b, err := GetBool(raw, *used, cfg, root, "flag")
	require.NoError(t, err)
	require.True(t, b)

	i, err := GetI64(raw, *used, cfg, root, "count")
	require.NoError(t, err)
	require.Equal(t, int64(-42), i)

	f, err := GetF64(raw, *used, cfg, root, "ratio")
	require.NoError(t, err)
	require.Equal(t, 3.5, f)

	s, err := GetString(raw, *used, cfg, root, "name")
	require.NoError(t, err)
	require.Equal(t, "lite3", s)

	bs, err := GetBytes(raw, *used, cfg, root, "blob")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, bs)

	isNull, err := IsNull(raw, *used, cfg, root, "nothing")
	require.NoError(t, err)
	require.True(t, isNull)
}

// TestGetMissingKeyReturnsNotFound verifies looking up an absent key
// reports ErrNotFound rather than a zero value silently.
func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)
	_, err := GetI64(raw, *used, cfg, root, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestSetOverwritesExistingKey verifies that setting a key twice updates
// the value in place rather than creating a duplicate entry.
func TestSetOverwritesExistingKey(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)

	require.NoError(t, SetI64(raw, used, cfg, root, "x", 1))
	require.NoError(t, SetI64(raw, used, cfg, root, "x", 2))

	v, err := GetI64(raw, *used, cfg, root, "x")
	require.NoError(t, err)
	require.Equal(t, int64(2), v)
	require.Equal(t, uint32(1), Count(raw, cfg, root))
}

// TestSetGrowsValueRelocatesEntry verifies that replacing a short value
// with a longer one does not corrupt the tree: the new entry is relocated
// and the existing tree slot updated to point at it.
func TestSetGrowsValueRelocatesEntry(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)

	require.NoError(t, SetString(raw, used, cfg, root, "s", "short"))
	require.NoError(t, SetString(raw, used, cfg, root, "s", "a much longer replacement string"))

	v, err := GetString(raw, *used, cfg, root, "s")
	require.NoError(t, err)
	require.Equal(t, "a much longer replacement string", v)
}

// TestManyKeysForceSplits inserts enough keys to force several B-tree
// splits (including a root split) and verifies every key is still
// reachable afterward, exercising the invariant that a container's root
// offset never moves across growth.
func TestManyKeysForceSplits(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)
	keys := fuzzutil.NewKeyGen(1).NextN(500)

	for i, k := range keys {
		require.NoError(t, SetI64(raw, used, cfg, root, k, int64(i)))
	}
	require.Equal(t, uint32(len(keys)), Count(raw, cfg, root))

	for i, k := range keys {
		v, err := GetI64(raw, *used, cfg, root, k)
		require.NoError(t, err, "key %q should still be reachable after splits", k)
		require.Equal(t, int64(i), v)
	}
}

// TestArrayAppendAndIndex verifies arrays grow by append and that elements
// are addressable by their index afterward.
func TestArrayAppendAndIndex(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagArray)

	for i := 0; i < 50; i++ {
		idx, err := ArrAppendI64(raw, used, cfg, root, int64(i*10))
		require.NoError(t, err)
		require.Equal(t, uint32(i), idx)
	}

	for i := 0; i < 50; i++ {
		v, err := ArrGetI64(raw, cfg, root, uint32(i))
		require.NoError(t, err)
		require.Equal(t, int64(i*10), v)
	}
}

// TestArraySetInPlace verifies ArrSetValue overwrites an existing element
// without changing the array's length.
func TestArraySetInPlace(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagArray)

	_, err := ArrAppendString(raw, used, cfg, root, "old")
	require.NoError(t, err)
	require.NoError(t, ArrSetString(raw, used, cfg, root, 0, "new"))

	v, err := ArrGetString(raw, cfg, root, 0)
	require.NoError(t, err)
	require.Equal(t, "new", v)
	require.Equal(t, uint32(1), Count(raw, cfg, root))
}

// TestNestedObjectAndArray verifies containers can nest inside each other
// and that a nested container's returned offset is directly usable as a
// new container offset.
func TestNestedObjectAndArray(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)

	child, err := SetObject(raw, used, cfg, root, "child")
	require.NoError(t, err)
	require.NoError(t, SetI64(raw, used, cfg, child, "n", 7))

	arr, err := SetArray(raw, used, cfg, child, "items")
	require.NoError(t, err)
	_, err = ArrAppendBool(raw, used, cfg, arr, true)
	require.NoError(t, err)

	got, err := GetObject(raw, *used, cfg, root, "child")
	require.NoError(t, err)
	n, err := GetI64(raw, *used, cfg, got, "n")
	require.NoError(t, err)
	require.Equal(t, int64(7), n)

	gotArr, err := GetArray(raw, *used, cfg, got, "items")
	require.NoError(t, err)
	b, err := ArrGetBool(raw, cfg, gotArr, 0)
	require.NoError(t, err)
	require.True(t, b)
}

// TestGenerationBumpsOnMutation verifies every mutating call increments the
// document-wide generation counter.
func TestGenerationBumpsOnMutation(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)
	g0 := Generation(raw)
	require.NoError(t, SetI64(raw, used, cfg, root, "a", 1))
	require.Equal(t, g0+1, Generation(raw))
}

// TestIteratorInvalidatedByMutation verifies an iterator refuses to advance
// once the document has been mutated after it was created.
func TestIteratorInvalidatedByMutation(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)
	require.NoError(t, SetI64(raw, used, cfg, root, "a", 1))

	it := NewIterator(raw, *used, cfg, root)
	require.NoError(t, SetI64(raw, used, cfg, root, "b", 2))

	_, _, err := it.Next(raw)
	require.ErrorIs(t, err, ErrIteratorInvalidated)
}

// TestIteratorVisitsInAscendingHashOrder verifies the B-tree's inorder
// traversal yields entries in ascending key-hash order, not insertion
// order.
func TestIteratorVisitsInAscendingHashOrder(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)
	keys := fuzzutil.NewKeyGen(2).NextN(80)
	for _, k := range keys {
		require.NoError(t, SetBool(raw, used, cfg, root, k, true))
	}

	it := NewIterator(raw, *used, cfg, root)
	var lastHash uint32
	var first = true
	count := 0
	for {
		key, _, ok, err := it.NextObjectEntry(raw)
		require.NoError(t, err)
		if !ok {
			break
		}
		h := hashKey(key).hash
		if !first {
			require.LessOrEqual(t, lastHash, h)
		}
		first = false
		lastHash = h
		count++
	}
	require.Equal(t, len(keys), count)
}

// TestNodeSizePresets verifies every documented node size produces the
// matching key fanout.
func TestNodeSizePresets(t *testing.T) {
	cases := map[uint32]uint32{48: 3, 96: 7, 192: 15, 384: 31, 768: 63}
	for nodeSize, n := range cases {
		cfg, err := NodeSizeConfig(nodeSize)
		require.NoError(t, err)
		require.Equal(t, n, cfg.KeyCount)
		require.Equal(t, nodeSize, nodeSizeFor(cfg.KeyCount))
	}
}

// TestNodeSizeConfigRejectsUnsupportedSize verifies an unlisted node size
// is rejected rather than silently rounded.
func TestNodeSizeConfigRejectsUnsupportedSize(t *testing.T) {
	_, err := NodeSizeConfig(100)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// TestKeyHashExcludesTerminator verifies the DJB2 hash is computed only
// over key bytes, not the key's NUL terminator.
func TestKeyHashExcludesTerminator(t *testing.T) {
	withoutNul := hashKey("abc")
	raw := []byte("abc")
	var h uint32 = 5381
	for _, c := range raw {
		h = h*33 + uint32(c)
	}
	require.Equal(t, h, withoutNul.hash)
	require.Equal(t, uint32(len(raw)+1), withoutNul.size)
}

// TestKeyTagSizeRangeTable verifies the documented 4-tier key-tag-size
// table rather than the original C bit-trick (see DESIGN.md Open Question
// 1).
func TestKeyTagSizeRangeTable(t *testing.T) {
	require.Equal(t, uint32(1), keyTagSize(63))
	require.Equal(t, uint32(2), keyTagSize(64))
	require.Equal(t, uint32(2), keyTagSize(16383))
	require.Equal(t, uint32(3), keyTagSize(16384))
	require.Equal(t, uint32(3), keyTagSize(4194303))
	require.Equal(t, uint32(4), keyTagSize(4194304))
}

// TestEmptyKeyRejected verifies SetXxx refuses an empty object key rather
// than silently writing an unaddressable entry.
func TestEmptyKeyRejected(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)
	err := SetI64(raw, used, cfg, root, "", 1)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// TestOutOfSpaceLeavesUsedLengthUnchanged verifies a mutation that cannot
// fit in the remaining buffer reports ErrOutOfSpace without advancing the
// used length. The generation counter still advances (see
// TestSetObjectValueBumpsGenerationEvenOnFailure).
func TestOutOfSpaceLeavesUsedLengthUnchanged(t *testing.T) {
	cfg := DefaultConfig
	raw := make([]byte, cfg.NodeSize+8)
	var used uint32
	root, err := InitObj(raw, &used, cfg)
	require.NoError(t, err)

	before := used
	err = SetString(raw, &used, cfg, root, "k", "this value cannot possibly fit")
	require.ErrorIs(t, err, ErrOutOfSpace)
	require.Equal(t, before, used)
}

// TestTypeReportsStoredTag verifies Type/ArrType report the tag of the
// value actually stored, for every scalar kind.
func TestTypeReportsStoredTag(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)
	require.NoError(t, SetBool(raw, used, cfg, root, "b", true))
	require.NoError(t, SetI64(raw, used, cfg, root, "i", 1))

	tag, err := Type(raw, *used, cfg, root, "b")
	require.NoError(t, err)
	require.Equal(t, TagBool, tag)

	tag, err = Type(raw, *used, cfg, root, "i")
	require.NoError(t, err)
	require.Equal(t, TagI64, tag)
}

// TestExistsDistinguishesAbsenceFromError verifies Exists returns
// (false, nil) for an absent key rather than propagating ErrNotFound.
func TestExistsDistinguishesAbsenceFromError(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)
	ok, err := Exists(raw, *used, cfg, root, "nope")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, SetNull(raw, used, cfg, root, "nope"))
	ok, err = Exists(raw, *used, cfg, root, "nope")
	require.NoError(t, err)
	require.True(t, ok)
}

// objectCollisionKeys returns n keys whose hashKey hashes are all identical.
// hashKey is a DJB2-style rolling hash, so for two adjacent bytes in a
// fixed-length key the first byte's positional weight is exactly 33 times
// the second's: shifting k off the first byte onto 33*k on the second
// leaves the final hash unchanged. Each key packs a 0..6 borrow amount into
// each of 4 independent byte pairs, giving 7^4 = 2401 distinct 8-byte keys
// that all hash identically.
func objectCollisionKeys(n int) []string {
	keys := make([]string, n)
	for j := 0; j < n; j++ {
		rem := j
		b := make([]byte, 8)
		for m := 0; m < 4; m++ {
			k := rem % 7
			rem /= 7
			b[2*m] = byte(8 - k)
			b[2*m+1] = byte(1 + 33*k)
		}
		keys[j] = string(b)
	}
	return keys
}

// TestObjectProbeExhaustionReturnsInvalidArgument verifies that once
// HashProbeMax keys share one base hash, the next insert past the probe
// sequence's slot range fails invalid-argument instead of succeeding past
// the documented probe bound.
func TestObjectProbeExhaustionReturnsInvalidArgument(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)
	require.Equal(t, uint32(128), cfg.HashProbeMax)

	keys := objectCollisionKeys(int(cfg.HashProbeMax) + 1)
	baseHash := hashKey(keys[0]).hash
	for _, k := range keys {
		require.Equal(t, baseHash, hashKey(k).hash, "fixture keys must share one base hash")
	}

	for i := uint32(0); i < cfg.HashProbeMax; i++ {
		require.NoError(t, SetI64(raw, used, cfg, root, keys[i], int64(i)))
	}

	err := SetI64(raw, used, cfg, root, keys[cfg.HashProbeMax], int64(cfg.HashProbeMax))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// TestGenerationSurvivesRootSplit verifies a document-root split does not
// reset the generation counter packed into the same header word as the
// root's type tag.
func TestGenerationSurvivesRootSplit(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagObject)
	keys := fuzzutil.NewKeyGen(3).NextN(200)

	var lastGen uint32
	for _, k := range keys {
		require.NoError(t, SetI64(raw, used, cfg, root, k, 1))
		gen := Generation(raw)
		require.Greater(t, gen, lastGen, "generation must strictly increase, never reset, across a root split")
		lastGen = gen
	}
}

// TestArraySetAtCountAppends verifies ArrSetValue treats an index equal to
// the array's current length as an append rather than ErrNotFound.
func TestArraySetAtCountAppends(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagArray)

	require.NoError(t, ArrSetI64(raw, used, cfg, root, 0, 10))
	require.Equal(t, uint32(1), Count(raw, cfg, root))

	require.NoError(t, ArrSetI64(raw, used, cfg, root, 1, 20))
	require.Equal(t, uint32(2), Count(raw, cfg, root))

	v0, err := ArrGetI64(raw, cfg, root, 0)
	require.NoError(t, err)
	require.Equal(t, int64(10), v0)

	v1, err := ArrGetI64(raw, cfg, root, 1)
	require.NoError(t, err)
	require.Equal(t, int64(20), v1)
}

// TestArraySetPastCountFails verifies ArrSetValue refuses to leave a gap in
// the array when idx is greater than the current length.
func TestArraySetPastCountFails(t *testing.T) {
	raw, used, cfg, root := newDoc(t, TagArray)

	err := ArrSetI64(raw, used, cfg, root, 5, 1)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Equal(t, uint32(0), Count(raw, cfg, root))

	_, err = ArrAppendI64(raw, used, cfg, root, 1)
	require.NoError(t, err)

	err = ArrSetI64(raw, used, cfg, root, 3, 1)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Equal(t, uint32(1), Count(raw, cfg, root))
}

// TestSetObjectValueBumpsGenerationEvenOnFailure verifies a mutation
// attempt that fails still advances the generation counter, since a caller
// may have partially observed buffer state before the failure.
func TestSetObjectValueBumpsGenerationEvenOnFailure(t *testing.T) {
	cfg := DefaultConfig
	raw := make([]byte, cfg.NodeSize+8)
	var used uint32
	root, err := InitObj(raw, &used, cfg)
	require.NoError(t, err)

	g0 := Generation(raw)
	err = SetString(raw, &used, cfg, root, "k", "this value cannot possibly fit")
	require.ErrorIs(t, err, ErrOutOfSpace)
	require.Equal(t, g0+1, Generation(raw))
}
