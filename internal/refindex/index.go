// Package refindex is a small in-memory vector index over citation
// references gathered during interviews. It exists for one run of the
// pipeline: references go in after the interviews, and section drafting
// queries for the most relevant ones per section.
package refindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Embedder computes dense vectors for texts.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Document is one indexable reference.
type Document struct {
	Content   string
	SourceURL string
}

type entry struct {
	doc Document
	vec []float32
}

// Index is a mutex-guarded in-memory cosine-similarity store.
type Index struct {
	embedder Embedder

	mu      sync.RWMutex
	entries []entry
}

// New creates an empty index backed by the given embedder.
func New(embedder Embedder) *Index {
	return &Index{embedder: embedder}
}

// Add embeds the documents in one batch and stores them.
func (ix *Index) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	vecs, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("refindex: embed documents: %w", err)
	}
	if len(vecs) != len(docs) {
		return fmt.Errorf("refindex: expected %d vectors, got %d", len(docs), len(vecs))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, d := range docs {
		ix.entries = append(ix.entries, entry{doc: d, vec: vecs[i]})
	}
	return nil
}

// Len reports the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// QuerySimilar returns the contents of the k documents most similar to
// the query text, best first. k larger than the index is clamped.
func (ix *Index) QuerySimilar(ctx context.Context, text string, k int) ([]string, error) {
	if k <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	n := len(ix.entries)
	ix.mu.RUnlock()
	if n == 0 {
		return nil, nil
	}

	qvec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("refindex: embed query: %w", err)
	}

	type scored struct {
		content string
		score   float64
	}

	ix.mu.RLock()
	ranked := make([]scored, 0, len(ix.entries))
	for _, e := range ix.entries {
		ranked = append(ranked, scored{content: e.doc.Content, score: cosine(qvec, e.vec)})
	}
	ix.mu.RUnlock()

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = ranked[i].content
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
