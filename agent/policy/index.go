// Package policy builds and searches the semantic index over the return
// policy documents.
package policy

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
)

// DefaultTopK is how many chunks a search returns when k is not positive.
const DefaultTopK = 3

// Chunk is one slice of a policy document. Position is its key in the index.
type Chunk struct {
	Position int    `json:"position"`
	Content  string `json:"content"`
	Source   string `json:"source"`
	Title    string `json:"title"`
}

type Hit struct {
	Chunk
	Score float32 `json:"score"`
}

// Index is a flat inner-product index over L2-normalized chunk vectors. It
// is immutable after Build and safe for concurrent searches.
type Index struct {
	embedder contractx.Embedder
	chunks   []Chunk
	vectors  [][]float32
	dims     int
}

type buildOptions struct {
	splitter *Splitter
	query    contractx.Embedder
}

type BuildOption func(*buildOptions)

func WithSplitter(s *Splitter) BuildOption {
	return func(o *buildOptions) {
		if s != nil {
			o.splitter = s
		}
	}
}

// WithQueryEmbedder sets the embedder Search uses for queries. It must
// produce vectors in the same space as the chunk embedder, typically the
// uncached model behind a caching chunk embedder.
func WithQueryEmbedder(e contractx.Embedder) BuildOption {
	return func(o *buildOptions) {
		if e != nil {
			o.query = e
		}
	}
}

// Build splits docs, embeds every chunk in one batch and normalizes the
// vectors.
func Build(ctx context.Context, embedder contractx.Embedder, docs []Document, opts ...BuildOption) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", contractx.ErrValidation)
	}
	o := buildOptions{splitter: NewSplitter()}
	for _, opt := range opts {
		opt(&o)
	}
	dims := embedder.Dimensions()
	query := embedder
	if o.query != nil {
		if o.query.Dimensions() != dims {
			return nil, fmt.Errorf("%w: query embedder has %d dimensions, want %d", contractx.ErrValidation, o.query.Dimensions(), dims)
		}
		query = o.query
	}

	var chunks []Chunk
	for _, doc := range docs {
		for _, text := range o.splitter.Split(doc.Content) {
			chunks = append(chunks, Chunk{
				Position: len(chunks),
				Content:  text,
				Source:   doc.ID,
				Title:    doc.Title,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no policy chunks to index", contractx.ErrValidation)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed policy chunks: %v", contractx.ErrUpstream, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", contractx.ErrUpstream, len(vectors), len(chunks))
	}

	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, want %d", contractx.ErrUpstream, i, len(v), dims)
		}
		vectors[i] = Normalize(v)
	}

	return &Index{
		embedder: query,
		chunks:   chunks,
		vectors:  vectors,
		dims:     dims,
	}, nil
}

func (ix *Index) Len() int        { return len(ix.chunks) }
func (ix *Index) Dimensions() int { return ix.dims }

// Chunks returns a copy of the indexed chunks in position order.
func (ix *Index) Chunks() []Chunk {
	return append([]Chunk(nil), ix.chunks...)
}

// Search returns up to k chunks, highest inner product first. Equal scores
// keep position order.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", contractx.ErrInvalidArgument)
	}
	if k <= 0 {
		k = DefaultTopK
	}

	qv, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", contractx.ErrUpstream, err)
	}
	if len(qv) != 1 || len(qv[0]) != ix.dims {
		return nil, fmt.Errorf("%w: query embedding has wrong shape", contractx.ErrUpstream)
	}
	q := Normalize(qv[0])

	type scored struct {
		pos   int
		score float32
	}
	scores := make([]scored, len(ix.vectors))
	for i, v := range ix.vectors {
		scores[i] = scored{pos: i, score: dot(q, v)}
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	hits := make([]Hit, 0, min(k, len(scores)))
	for _, s := range scores {
		if len(hits) == k {
			break
		}
		if s.pos < 0 || s.pos >= len(ix.chunks) || isNaN(s.score) {
			continue
		}
		hits = append(hits, Hit{Chunk: ix.chunks[s.pos], Score: s.score})
	}
	return hits, nil
}

// Normalize returns v scaled to unit length. A zero vector is returned as is.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func isNaN(f float32) bool {
	return f != f
}
