package lite3

import "fmt"

// maxHeightCap bounds the iterator's explicit stack arrays; it comfortably
// covers the deepest of the five node-size presets (height 14 for 48-byte
// nodes).
const maxHeightCap = 16

// Iterator performs a depth-bounded, stack-based inorder traversal of a
// container's B-tree. It captures the document's generation counter at
// creation time and refuses to advance once that counter changes underneath
// it.
type Iterator struct {
	cfg            Config
	gen            uint32
	usedAtCreation uint32
	nodeOfs        [maxHeightCap]uint32
	nodeIdx        [maxHeightCap]uint32
	depth          uint32
}

// NewIterator creates an iterator positioned before the first entry of the
// container rooted at containerOfs.
func NewIterator(raw []byte, used uint32, cfg Config, containerOfs uint32) *Iterator {
	it := &Iterator{cfg: cfg, gen: Generation(raw), usedAtCreation: used}
	it.pushLeftmost(raw, containerOfs)
	return it
}

func (it *Iterator) pushLeftmost(raw []byte, ofs uint32) {
	for it.depth < maxHeightCap {
		it.nodeOfs[it.depth] = ofs
		it.nodeIdx[it.depth] = 0
		it.depth++
		nd := nodeAt(raw, ofs, it.cfg.KeyCount)
		if nd.isLeaf() {
			return
		}
		ofs = nd.childOfs(0)
	}
}

// Next advances the iterator and returns the kv offset of the next entry in
// ascending hash order. For objects that offset is a key record (use
// NextObjectEntry to resolve key and value together); for arrays it is the
// value record directly.
func (it *Iterator) Next(raw []byte) (kvOfs uint32, ok bool, err error) {
	if it.gen != Generation(raw) {
		return 0, false, fmt.Errorf("iterator used after mutation: %w", ErrIteratorInvalidated)
	}
	for it.depth > 0 {
		top := it.depth - 1
		ofs := it.nodeOfs[top]
		nd := nodeAt(raw, ofs, it.cfg.KeyCount)
		i := it.nodeIdx[top]
		if i >= nd.localKeyCount() {
			it.depth--
			continue
		}
		it.nodeIdx[top] = i + 1
		kv := nd.kvOfs(i)
		if !nd.isLeaf() {
			it.pushLeftmost(raw, nd.childOfs(i+1))
		}
		return kv, true, nil
	}
	return 0, false, nil
}

// NextObjectEntry advances the iterator over an object, resolving the key
// record it lands on into its key string and value offset.
func (it *Iterator) NextObjectEntry(raw []byte) (key string, valOfs uint32, ok bool, err error) {
	kvOfs, ok, err := it.Next(raw)
	if err != nil || !ok {
		return "", 0, ok, err
	}
	key, valOfs, err = readKeyRecord(raw, it.usedAtCreation, kvOfs)
	return key, valOfs, true, err
}

// NextArrayElement advances the iterator over an array, returning the next
// element's value offset.
func (it *Iterator) NextArrayElement(raw []byte) (valOfs uint32, ok bool, err error) {
	return it.Next(raw)
}
