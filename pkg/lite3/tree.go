package lite3

import "fmt"

// This file implements the per-collection B-tree: lookup, insert-with-split
// and the root-relocation trick that keeps a container's offset stable
// across growth. Unlike a classic B+tree, internal nodes here carry real
// key/value entries of their own (hashes[i]/kv_ofs[i] are live data, not
// just separators) - a promoted median during a split moves its value with
// it rather than leaving a copy behind, matching the struct layout that
// pairs one kv_ofs with every hash slot at every level.

// Generation returns the document-wide mutation counter stored in the
// document root's header (offset 0), used to invalidate iterators.
func Generation(raw []byte) uint32 {
	return nodeAt(raw, 0, 0).gen()
}

func bumpGeneration(raw []byte) {
	root := nodeAt(raw, 0, 0)
	root.setGen((root.gen() + 1) & 0xFFFFFF)
}

// validateNodeOfs checks that ofs is 4-byte aligned and that a full node
// fits inside raw starting there, before any code dereferences it. A
// corrupt or adversarial child offset (out of range, misaligned, or
// pointing back up the tree) is reported as ErrCorruptBuffer instead of
// panicking through node.go's unchecked accessors.
func validateNodeOfs(raw []byte, cfg Config, ofs uint32) error {
	if ofs%4 != 0 {
		return fmt.Errorf("node offset %d is not 4-byte aligned: %w", ofs, ErrCorruptBuffer)
	}
	if uint64(ofs)+uint64(cfg.NodeSize) > uint64(len(raw)) {
		return fmt.Errorf("node offset %d out of bounds: %w", ofs, ErrCorruptBuffer)
	}
	return nil
}

// treeFindSlot walks the tree rooted at ofs looking for an exact hash
// match, returning the node offset and local index holding it. depth counts
// the number of nodes already descended through on this call chain and is
// checked against cfg.MaxHeight so a buffer whose child pointers cycle back
// toward an ancestor fails closed instead of recursing forever.
func treeFindSlot(raw []byte, cfg Config, ofs uint32, hash uint32, depth uint32) (nodeOfs uint32, idx uint32, kvOfs uint32, found bool, err error) {
	if depth >= cfg.MaxHeight {
		return 0, 0, 0, false, fmt.Errorf("tree depth exceeds %d: %w", cfg.MaxHeight, ErrCorruptBuffer)
	}
	if err := validateNodeOfs(raw, cfg, ofs); err != nil {
		return 0, 0, 0, false, err
	}
	nd := nodeAt(raw, ofs, cfg.KeyCount)
	i, exact := nd.searchPos(hash)
	if exact {
		return ofs, i, nd.kvOfs(i), true, nil
	}
	if nd.isLeaf() {
		return 0, 0, 0, false, nil
	}
	return treeFindSlot(raw, cfg, nd.childOfs(i), hash, depth+1)
}

func treeGet(raw []byte, cfg Config, ofs uint32, hash uint32) (uint32, bool, error) {
	_, _, kvOfs, found, err := treeFindSlot(raw, cfg, ofs, hash, 0)
	return kvOfs, found, err
}

// recomputeSubtreeCount refreshes nd's total-subtree-entry count from its
// local key count plus each child's own subtree count.
func recomputeSubtreeCount(raw []byte, cfg Config, nd node) {
	if nd.isLeaf() {
		nd.setSubtreeCount(nd.localKeyCount())
		return
	}
	total := nd.localKeyCount()
	for i := uint32(0); i <= nd.localKeyCount(); i++ {
		c := nd.childOfs(i)
		if c == 0 {
			continue
		}
		total += nodeAt(raw, c, cfg.KeyCount).subtreeCount()
	}
	nd.setSubtreeCount(total)
}

// insertNodeEntry inserts (hash, kvOfs) into nd's sorted key array, shifting
// entries right to make room. When newChildOfs is set, the new child
// pointer is inserted immediately to the right of the separator. Caller
// must have already verified nd has room for one more key.
func insertNodeEntry(nd node, hash, kvOfs uint32, newChildOfs uint32, hasChild bool) {
	k := nd.localKeyCount()
	i, _ := nd.searchPos(hash)
	for j := k; j > i; j-- {
		nd.setHash(j, nd.hash(j-1))
		nd.setKvOfs(j, nd.kvOfs(j-1))
	}
	nd.setHash(i, hash)
	nd.setKvOfs(i, kvOfs)
	if hasChild {
		for j := k + 1; j > i+1; j-- {
			nd.setChildOfs(j, nd.childOfs(j-1))
		}
		nd.setChildOfs(i+1, newChildOfs)
	}
	nd.setLocalKeyCount(k + 1)
}

// splitAndInsert splits a full node, inserting (hash, kvOfs[, newChildOfs])
// into the logical N+1-entry sequence first, then dividing it into the
// original node (lower half) and a freshly allocated sibling (upper half).
// The median entry is promoted to the caller, which owns inserting it into
// its own parent (or creating a new root).
func splitAndInsert(raw []byte, used *uint32, cfg Config, ofs uint32, hash, kvOfs uint32, newChildOfs uint32, hasChild bool) (promHash, promKvOfs, siblingOfs uint32, err error) {
	nd := nodeAt(raw, ofs, cfg.KeyCount)
	n := nd.n
	hashes := make([]uint32, n+1)
	kvs := make([]uint32, n+1)
	var children []uint32
	if hasChild {
		children = make([]uint32, n+2)
	}

	pos, _ := nd.searchPos(hash)
	ci := uint32(0)
	for i := uint32(0); i < n; i++ {
		if ci == pos {
			hashes[ci], kvs[ci] = hash, kvOfs
			ci++
		}
		hashes[ci], kvs[ci] = nd.hash(i), nd.kvOfs(i)
		ci++
	}
	if ci == pos {
		hashes[ci], kvs[ci] = hash, kvOfs
	}

	if hasChild {
		cj := uint32(0)
		for i := uint32(0); i <= n; i++ {
			if cj == pos+1 {
				children[cj] = newChildOfs
				cj++
			}
			children[cj] = nd.childOfs(i)
			cj++
		}
		if cj == pos+1 {
			children[cj] = newChildOfs
		}
	}

	mid := (n + 1) / 2
	promHash, promKvOfs = hashes[mid], kvs[mid]

	siblingOfs, err = allocNode(raw, used, cfg)
	if err != nil {
		return 0, 0, 0, err
	}
	sib := nodeAt(raw, siblingOfs, n)
	sib.setHeader(uint32(nd.typeTag()))
	upper := n - mid
	for i := uint32(0); i < upper; i++ {
		sib.setHash(i, hashes[mid+1+i])
		sib.setKvOfs(i, kvs[mid+1+i])
	}
	sib.setLocalKeyCount(upper)
	if hasChild {
		for i := uint32(0); i <= upper; i++ {
			sib.setChildOfs(i, children[mid+1+i])
		}
	}

	lower := mid
	for i := uint32(0); i < n; i++ {
		if i < lower {
			nd.setHash(i, hashes[i])
			nd.setKvOfs(i, kvs[i])
		} else {
			nd.setHash(i, 0)
			nd.setKvOfs(i, 0)
		}
	}
	nd.setLocalKeyCount(lower)
	if hasChild {
		for i := uint32(0); i <= n; i++ {
			if i <= lower {
				nd.setChildOfs(i, children[i])
			} else {
				nd.setChildOfs(i, 0)
			}
		}
	}

	recomputeSubtreeCount(raw, cfg, nd)
	recomputeSubtreeCount(raw, cfg, sib)
	return promHash, promKvOfs, siblingOfs, nil
}

// treeInsert inserts (hash, kvOfs) into the subtree rooted at ofs. When the
// node at ofs has to split to make room, split is true and
// (promHash, promKvOfs, siblingOfs) describe the entry the caller must
// insert into its own parent. depth is checked against cfg.MaxHeight for
// the same reason treeFindSlot checks it: a corrupt child offset that
// cycles back toward an ancestor must fail closed, not recurse forever.
func treeInsert(raw []byte, used *uint32, cfg Config, ofs uint32, hash, kvOfs uint32, depth uint32) (promHash, promKvOfs, siblingOfs uint32, split bool, err error) {
	if depth >= cfg.MaxHeight {
		return 0, 0, 0, false, fmt.Errorf("tree depth exceeds %d: %w", cfg.MaxHeight, ErrCorruptBuffer)
	}
	if err := validateNodeOfs(raw, cfg, ofs); err != nil {
		return 0, 0, 0, false, err
	}
	nd := nodeAt(raw, ofs, cfg.KeyCount)
	if nd.isLeaf() {
		if nd.localKeyCount() < nd.n {
			insertNodeEntry(nd, hash, kvOfs, 0, false)
			nd.setSubtreeCount(nd.subtreeCount() + 1)
			return 0, 0, 0, false, nil
		}
		promHash, promKvOfs, siblingOfs, err = splitAndInsert(raw, used, cfg, ofs, hash, kvOfs, 0, false)
		return promHash, promKvOfs, siblingOfs, true, err
	}

	i, _ := nd.searchPos(hash)
	childOfs := nd.childOfs(i)
	cHash, cKv, cSib, childSplit, err := treeInsert(raw, used, cfg, childOfs, hash, kvOfs, depth+1)
	if err != nil {
		return 0, 0, 0, false, err
	}
	if !childSplit {
		nd.setSubtreeCount(nd.subtreeCount() + 1)
		return 0, 0, 0, false, nil
	}
	if nd.localKeyCount() < nd.n {
		insertNodeEntry(nd, cHash, cKv, cSib, true)
		recomputeSubtreeCount(raw, cfg, nd)
		return 0, 0, 0, false, nil
	}
	promHash, promKvOfs, siblingOfs, err = splitAndInsert(raw, used, cfg, ofs, cHash, cKv, cSib, true)
	return promHash, promKvOfs, siblingOfs, true, err
}

// treeInsertRoot inserts (hash, kvOfs) into the container rooted at
// rootOfs. If the root itself splits, its current contents are relocated to
// a freshly allocated node and the root is rewritten in place as a new
// internal node with one key and two children - this keeps rootOfs itself
// stable across growth, which is what lets callers hold a container offset
// across mutations.
func treeInsertRoot(raw []byte, used *uint32, cfg Config, rootOfs uint32, hash, kvOfs uint32) error {
	promHash, promKvOfs, sibOfs, split, err := treeInsert(raw, used, cfg, rootOfs, hash, kvOfs, 0)
	if err != nil {
		return err
	}
	if !split {
		return nil
	}
	relocatedOfs, err := allocNode(raw, used, cfg)
	if err != nil {
		return err
	}
	copy(raw[relocatedOfs:relocatedOfs+cfg.NodeSize], raw[rootOfs:rootOfs+cfg.NodeSize])

	root := nodeAt(raw, rootOfs, cfg.KeyCount)
	tag := root.typeTag()
	gen := root.gen()
	clear(raw[rootOfs : rootOfs+cfg.NodeSize])
	root.setHeader(uint32(tag))
	root.setGen(gen)
	root.setHash(0, promHash)
	root.setKvOfs(0, promKvOfs)
	root.setChildOfs(0, relocatedOfs)
	root.setChildOfs(1, sibOfs)
	root.setLocalKeyCount(1)
	recomputeSubtreeCount(raw, cfg, root)
	return nil
}
