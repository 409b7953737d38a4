// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

// Hash is a streaming 64-bit FNV-1a hasher, used throughout the engine to
// fingerprint generated argument tuples for deduplication and to
// fingerprint bit pools for autoshrink slots.
//
// The zero value is not ready for use; construct one with NewHash, or call
// Init on an existing Hash to (re)start it.
type Hash struct {
	state uint64
}

const (
	fnvOffsetBasis uint64 = 0xcbf29ce484222325
	fnvPrime       uint64 = 0x100000001b3
)

// NewHash returns a freshly initialized Hash.
func NewHash() Hash {
	var h Hash
	h.Init()
	return h
}

// Init (re)starts incremental hashing from the FNV-1a offset basis.
func (h *Hash) Init() {
	h.state = fnvOffsetBasis
}

// Sink folds more bytes into the incremental hash.
func (h *Hash) Sink(data []byte) {
	a := h.state
	for _, b := range data {
		a = (a ^ uint64(b)) * fnvPrime
	}
	h.state = a
}

// SinkUint64 folds a uint64 into the hash as 8 little-endian bytes,
// avoiding an allocation for the common case of hashing fixed-width
// request values out of a bit pool.
func (h *Hash) SinkUint64(v uint64) {
	var buf [8]byte
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
	buf[4] = byte(v >> 32)
	buf[5] = byte(v >> 40)
	buf[6] = byte(v >> 48)
	buf[7] = byte(v >> 56)
	h.Sink(buf[:])
}

// Finish returns the current hash value and resets the hasher, so the same
// Hash can immediately begin accumulating the next fingerprint.
func (h *Hash) Finish() uint64 {
	res := h.state
	h.Init()
	return res
}

// HashBytes hashes data in one pass: it constructs a Hash, sinks data, and
// finishes it.
func HashBytes(data []byte) uint64 {
	h := NewHash()
	h.Sink(data)
	return h.Finish()
}
