// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test_Hash_OnepassMatchesIncremental checks that
// Finish(Init→Sink(A)→Sink(B)) == HashBytes(A∥B).
func Test_Hash_OnepassMatchesIncremental(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	a := []byte("hello, ")
	b := []byte("world")

	var h Hash
	h.Init()
	h.Sink(a)
	h.Sink(b)
	incremental := h.Finish()

	onepass := HashBytes(append(append([]byte{}, a...), b...))

	is.Equal(onepass, incremental, "incremental hash must match one-pass hash of the concatenation")
}

func Test_Hash_FinishResets(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var h Hash
	h.Init()
	h.Sink([]byte("first"))
	first := h.Finish()

	h.Sink([]byte("first"))
	second := h.Finish()

	is.Equal(first, second, "Finish must reset the hasher so identical input produces identical output")
}

func Test_Hash_EmptyInputIsOffsetBasis(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.Equal(fnvOffsetBasis, HashBytes(nil))
}

func Test_Hash_DifferentInputsDiffer(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.NotEqual(HashBytes([]byte("a")), HashBytes([]byte("b")))
}

func Test_Hash_SinkUint64MatchesLittleEndianBytes(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var h1 Hash
	h1.Init()
	h1.SinkUint64(0x0102030405060708)
	got := h1.Finish()

	var h2 Hash
	h2.Init()
	h2.Sink([]byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01})
	want := h2.Finish()

	is.Equal(want, got)
}
