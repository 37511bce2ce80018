// Package lite3 implements an in-place, zero-copy, JSON-compatible binary
// serialization engine. A document is a single contiguous byte buffer
// holding a self-describing, mutable, hierarchical structure rooted in an
// object or array, organized around a per-collection B-tree index that maps
// hashed keys (or array indices) to value locations inside the same buffer.
//
// The package never allocates a parse tree and never copies the buffer it
// is given: readers, writers and iterators all walk the bytes directly.
// Keys are addressed by a 32-bit DJB2-style hash with quadratic-probing
// collision resolution; nested objects and arrays are themselves B-tree
// roots embedded inline at their parent's value slot. Every mutation bumps
// a document-wide generation counter, which iterators compare against to
// detect that the buffer changed under them. String and bytes getters
// return copies, so they hold no reference into the buffer.
//
// This package is the core engine (hashing, value codec, node layout, tree
// insert/lookup/split, iteration). It operates on a caller-supplied byte
// slice plus a running "used length" cursor rather than owning any memory
// itself; pkg/buffer and pkg/context build the external-facing document
// types on top of it.
package lite3
