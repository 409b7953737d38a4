// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test_Bloom_MarkThenCheckIsAlwaysTrue checks that for every byte
// sequence x, once mark(x) has been called, check(x) is true.
func Test_Bloom_MarkThenCheckIsAlwaysTrue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	b := newBloomFilter(BloomConfig{TopBlockBits: 4, MinFilterBits: 1024})

	for i := 0; i < 5000; i++ {
		data := []byte(fmt.Sprintf("item-%d", i))
		b.mark(data)
		is.True(b.check(data), "check must be true immediately after mark for %q", data)
	}
}

func Test_Bloom_AbsenceBeforeMarkIsUsuallyFalse(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	b := newBloomFilter(DefaultBloomConfig())
	falsePositives := 0
	const n = 10000
	for i := 0; i < n; i++ {
		if b.check([]byte(fmt.Sprintf("never-marked-%d", i))) {
			falsePositives++
		}
	}
	// A well-sized filter should have a very low false-positive rate
	// against an empty set; this is a sanity bound, not a precise model.
	is.Less(falsePositives, n/10)
}

func Test_Bloom_DefaultConfigMeetsMinimumTotalBits(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cfg := DefaultBloomConfig()
	total := uint64(1<<cfg.TopBlockBits) * roundUpToBlock(cfg.MinFilterBits)
	is.GreaterOrEqual(total, uint64(1<<23))
}

func roundUpToBlock(bits uint64) uint64 {
	return ((bits + bloomBlockBits - 1) / bloomBlockBits) * bloomBlockBits
}

func Test_Bloom_ZeroConfigFallsBackToDefault(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	b := newBloomFilter(BloomConfig{})
	is.Equal(DefaultBloomConfig().TopBlockBits, b.topBlockBits)
}

func Test_Bloom_SingleBlockConfiguration(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	b := newBloomFilter(BloomConfig{TopBlockBits: 0, MinFilterBits: 512})
	is.Len(b.blocks, 1)
	b.mark([]byte("x"))
	is.True(b.check([]byte("x")))
}
