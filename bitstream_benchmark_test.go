// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"fmt"
	"testing"
)

func BenchmarkBitStream_Bits(b *testing.B) {
	widths := []uint8{1, 8, 17, 32, 64}
	for _, w := range widths {
		w := w
		b.Run(fmt.Sprintf("Bits_%dWidth", w), func(b *testing.B) {
			s := newBitStream(0x1234)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s.Bits(w)
			}
		})
	}
}

func BenchmarkBitStream_BitsBulk(b *testing.B) {
	bitCounts := []uint32{64, 256, 1024, 4096}
	for _, n := range bitCounts {
		n := n
		out := make([]uint64, (n+63)/64)
		b.Run(fmt.Sprintf("BitsBulk_%dBits", n), func(b *testing.B) {
			s := newBitStream(0x1234)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for j := range out {
					out[j] = 0
				}
				s.BitsBulk(n, out)
			}
		})
	}
}

func BenchmarkBitPool_RecordAndReplay(b *testing.B) {
	widths := make([]uint8, 64)
	for i := range widths {
		widths[i] = 8
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, _ := recordValues(uint64(i), widths)
		replayValues(p, widths)
	}
}
