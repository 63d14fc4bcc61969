package vectorindex

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

// Index is an append-only flat inner-product index over L2-normalized
// vectors with a parallel metadata slice. Vectors are never removed;
// superseded entries are abandoned in place and the ordinal position of
// each entry is its durable identity for the lifetime of one generation.
type Index[M any] struct {
	mu      sync.RWMutex
	dim     int
	gen     uint32
	vectors []float32
	metas   []M
	log     *logger.Logger
}

// Result is one search hit.
type Result[M any] struct {
	Handle Handle
	Score  float32
	Meta   M
}

func New[M any](dim int, log *logger.Logger) *Index[M] {
	return &Index[M]{
		dim: dim,
		gen: newGeneration(),
		log: log.With("component", "vectorindex"),
	}
}

func newGeneration() uint32 {
	for {
		if g := rand.Uint32(); g != 0 {
			return g
		}
	}
}

func (ix *Index[M]) Dim() int { return ix.dim }

func (ix *Index[M]) Generation() uint32 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.gen
}

func (ix *Index[M]) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors) / ix.dim
}

// Add appends a batch of vectors with their metadata and returns one
// handle per vector, in order. Every vector is L2-normalized before being
// stored so the inner product behaves as cosine similarity.
func (ix *Index[M]) Add(vectors [][]float32, metas []M) ([]Handle, error) {
	if len(vectors) != len(metas) {
		return nil, &LengthError{Vectors: len(vectors), Metadata: len(metas)}
	}
	for _, v := range vectors {
		if len(v) != ix.dim {
			return nil, &DimensionError{Want: ix.dim, Got: len(v)}
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	start := uint32(len(ix.vectors) / ix.dim)
	handles := make([]Handle, len(vectors))
	for i, v := range vectors {
		ix.vectors = append(ix.vectors, normalize(v)...)
		handles[i] = Handle{Pos: start + uint32(i), Gen: ix.gen}
	}
	ix.metas = append(ix.metas, metas...)
	return handles, nil
}

// Search normalizes the query, scores every stored vector, keeps the
// topK*10 best candidates and then applies the metadata match, returning
// at most topK results in descending score order. An empty index returns
// an empty slice. Positions beyond the metadata slice are skipped so a
// load-time count mismatch degrades to fewer candidates, never a panic.
func (ix *Index[M]) Search(query []float32, topK int, match func(M) bool) ([]Result[M], error) {
	if len(query) != ix.dim {
		return nil, &DimensionError{Want: ix.dim, Got: len(query)}
	}
	if topK <= 0 {
		return []Result[M]{}, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	total := len(ix.vectors) / ix.dim
	if total == 0 {
		return []Result[M]{}, nil
	}

	q := normalize(query)
	scored := make([]Result[M], 0, total)
	for pos := 0; pos < total; pos++ {
		if pos >= len(ix.metas) {
			continue
		}
		row := ix.vectors[pos*ix.dim : (pos+1)*ix.dim]
		var score float32
		for i, x := range row {
			score += x * q[i]
		}
		scored = append(scored, Result[M]{
			Handle: Handle{Pos: uint32(pos), Gen: ix.gen},
			Score:  score,
			Meta:   ix.metas[pos],
		})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	searchK := topK * 10
	if searchK > len(scored) {
		searchK = len(scored)
	}

	out := make([]Result[M], 0, topK)
	for _, cand := range scored[:searchK] {
		if match != nil && !match(cand.Meta) {
			continue
		}
		out = append(out, cand)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

// Resolve returns the metadata behind a handle. A handle from a different
// generation fails closed rather than pointing at an unrelated vector.
func (ix *Index[M]) Resolve(h Handle) (M, error) {
	var zero M
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if h.Gen != ix.gen {
		return zero, &GenerationError{Want: ix.gen, Got: h.Gen}
	}
	if int(h.Pos) >= len(ix.metas) {
		return zero, &LengthError{Vectors: len(ix.vectors) / ix.dim, Metadata: len(ix.metas)}
	}
	return ix.metas[h.Pos], nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
