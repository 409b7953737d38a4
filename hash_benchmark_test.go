// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"fmt"
	"testing"
)

func BenchmarkHash_Sink(b *testing.B) {
	bufferSizes := []int{8, 16, 32, 64, 256, 1024, 4096}
	for _, size := range bufferSizes {
		size := size
		buf := make([]byte, size)
		b.Run(fmt.Sprintf("Sink_%dBytes", size), func(b *testing.B) {
			b.SetBytes(int64(size))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				var h Hash
				h.Init()
				h.Sink(buf)
				h.Finish()
			}
		})
	}
}

func BenchmarkHash_SinkUint64(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()
	var h Hash
	h.Init()
	for i := 0; i < b.N; i++ {
		h.SinkUint64(uint64(i))
	}
}

func BenchmarkHashBytes(b *testing.B) {
	bufferSizes := []int{8, 16, 32, 64, 256, 1024, 4096}
	for _, size := range bufferSizes {
		size := size
		buf := make([]byte, size)
		b.Run(fmt.Sprintf("HashBytes_%dBytes", size), func(b *testing.B) {
			b.SetBytes(int64(size))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = HashBytes(buf)
			}
		})
	}
}
