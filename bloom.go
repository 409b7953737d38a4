// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

// bloomFilter is a blocked Bloom filter used to remember the fingerprints
// of already-tried argument tuples. Queries are
// approximate — false positives are treated as duplicates — but absence
// is always exact: mark(x) followed by check(x) is always true.
//
// The layout is adapted from github.com/greatroar/blobloom: an array of
// equally sized blocks, each a whole number of 512-bit (cache-line-sized)
// units, with the top bits of a single 64-bit fingerprint selecting the
// block and the remaining bits deriving several in-block positions via
// Kirsch-Mitzenmacher double hashing. Every mark/check touches only one
// block; a block larger than 512 bits (the default is 2^15 bits) spans
// several cache lines.
type bloomFilter struct {
	blocks       [][]uint64 // blocks[i] is one sub-filter, length filterWords 64-bit words
	topBlockBits uint8      // number of high hash bits selecting a block; blocks = 2^topBlockBits
	filterWords  int        // 64-bit words per block
	k            int        // number of derived positions per mark/check
}

// BloomConfig controls the size and hash count of the bloom filter the
// run controller uses for trial deduplication.
type BloomConfig struct {
	// TopBlockBits selects the number of sub-filters: 2^TopBlockBits, so
	// zero means a single sub-filter. When both fields are zero,
	// DefaultBloomConfig is used instead.
	TopBlockBits uint8

	// MinFilterBits floors the size, in bits, of each sub-filter; it is
	// rounded up to a multiple of bloomBlockBits. Zero means one
	// bloomBlockBits unit per sub-filter (unless both fields are zero).
	MinFilterBits uint64
}

// bloomBlockBits is the number of bits in the smallest allowed sub-filter
// granularity, matching a typical 64-byte cache line (blobloom.BlockBits).
const bloomBlockBits = 512

// bloomK is the number of hash positions derived and checked per
// mark/check call.
const bloomK = 6

// DefaultBloomConfig targets at least 2^23 total bits across sub-filters:
// 256 sub-filters (TopBlockBits=8) of 2^15 bits (4 KiB) each.
func DefaultBloomConfig() BloomConfig {
	return BloomConfig{
		TopBlockBits:  8,
		MinFilterBits: 1 << 15,
	}
}

func newBloomFilter(cfg BloomConfig) *bloomFilter {
	if cfg.TopBlockBits == 0 && cfg.MinFilterBits == 0 {
		cfg = DefaultBloomConfig()
	}

	numBlocks := 1
	if cfg.TopBlockBits > 0 {
		numBlocks = 1 << cfg.TopBlockBits
	}

	minBits := cfg.MinFilterBits
	if minBits == 0 {
		minBits = bloomBlockBits
	}
	filterBits := ((minBits + bloomBlockBits - 1) / bloomBlockBits) * bloomBlockBits
	filterWords := int(filterBits / 64)

	blocks := make([][]uint64, numBlocks)
	for i := range blocks {
		blocks[i] = make([]uint64, filterWords)
	}

	return &bloomFilter{
		blocks:       blocks,
		topBlockBits: cfg.TopBlockBits,
		filterWords:  filterWords,
		k:            bloomK,
	}
}

// blockAndPositions derives the sub-filter index and the in-block bit
// positions for a fingerprint.
func (b *bloomFilter) blockAndPositions(hash uint64) (int, [bloomK]int) {
	var blockIdx int
	if b.topBlockBits > 0 {
		blockIdx = int(hash >> (64 - b.topBlockBits))
	}

	// Kirsch-Mitzenmacher: synthesize k hash functions from two halves of
	// the single input hash, h_i = h1 + i*h2.
	h1 := uint32(hash)
	h2 := uint32(hash>>32) | 1

	filterBits := uint32(b.filterWords * 64)
	var positions [bloomK]int
	for i := 0; i < bloomK; i++ {
		combined := h1 + uint32(i)*h2
		positions[i] = int(combined % filterBits)
	}
	return blockIdx, positions
}

// mark hashes data and sets its positions in the filter.
func (b *bloomFilter) mark(data []byte) {
	hash := HashBytes(data)
	b.markHash(hash)
}

func (b *bloomFilter) markHash(hash uint64) {
	blockIdx, positions := b.blockAndPositions(hash)
	block := b.blocks[blockIdx]
	for _, p := range positions {
		block[p/64] |= uint64(1) << uint(p%64)
	}
}

// check hashes data and reports whether every derived position is set.
func (b *bloomFilter) check(data []byte) bool {
	return b.checkHash(HashBytes(data))
}

func (b *bloomFilter) checkHash(hash uint64) bool {
	blockIdx, positions := b.blockAndPositions(hash)
	block := b.blocks[blockIdx]
	for _, p := range positions {
		if block[p/64]&(uint64(1)<<uint(p%64)) == 0 {
			return false
		}
	}
	return true
}
