package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/shiori/internal/embedding"
	"github.com/hyperjump/shiori/internal/store"
)

func BenchmarkRanker_Search(b *testing.B) {
	ctx := context.Background()
	e := embedding.NewMockEmbedder(384)
	s := store.NewMemoryStore(384)
	for i := 0; i < 1000; i++ {
		text := fmt.Sprintf("bookmark %d about topic %d", i, i%37)
		v, _ := e.Embed(ctx, text)
		_ = s.Put(ctx, fmt.Sprintf("b-%d", i), text, v)
	}
	r := NewRanker(e, s, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Search(ctx, "benchmark query text", 15)
	}
}
