// Package rope provides an immutable, reference-counted rope for building
// strings through many small appends.
//
// A rope is a binary tree whose leaves are windows into shared, immutable
// buffers and whose internal nodes (links) denote the concatenation of
// their two children. Appending builds a new link over the existing trees
// and never copies data. Extracting a substring flattens the source once and
// returns a window into the flattened buffer, again without copying.
//
// Key properties:
//   - O(1) Append of ropes and raw buffers
//   - Zero-copy Substr sharing storage with its source
//   - Units materializes lazily and caches the flat form in the handle
//   - Release tears down trees of any depth with constant stack usage
//
// Nodes are shared between handles and carry an owner count. Handles are
// explicit owners: Clone shares a root, Release drops it. A handle must not
// be copied by value.
//
// Basic usage:
//
//	r := rope.FromString("abc")
//	defer r.Release()
//	s := r.AppendUnits([]byte("de"))
//	defer s.Release()
//	sub, _ := s.Substr(2, 3) // "cde"
//	defer sub.Release()
//
// Ropes are not safe for concurrent use. Owner counts are plain integers and
// sharing a rope across goroutines without external synchronization is a
// data race.
package rope
