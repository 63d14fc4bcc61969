package vectorindex

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

type meta struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
}

func newTestIndex(t *testing.T, dim int) *Index[meta] {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New[meta](dim, log)
}

func TestAddReturnsOrdinalHandles(t *testing.T) {
	ix := newTestIndex(t, 3)
	handles, err := ix.Add(
		[][]float32{{1, 0, 0}, {0, 1, 0}},
		[]meta{{ID: "a"}, {ID: "b"}},
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("handles: want=2 got=%d", len(handles))
	}
	if handles[0].Pos != 0 || handles[1].Pos != 1 {
		t.Fatalf("positions: want=0,1 got=%d,%d", handles[0].Pos, handles[1].Pos)
	}
	more, err := ix.Add([][]float32{{0, 0, 1}}, []meta{{ID: "c"}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if more[0].Pos != 2 {
		t.Fatalf("appended position: want=2 got=%d", more[0].Pos)
	}
}

func TestAddDimensionMismatch(t *testing.T) {
	ix := newTestIndex(t, 3)
	_, err := ix.Add([][]float32{{1, 0}}, []meta{{ID: "a"}})
	var de *DimensionError
	if !errors.As(err, &de) {
		t.Fatalf("Add: want DimensionError got=%v", err)
	}
	if ix.Len() != 0 {
		t.Fatalf("failed Add must not mutate: len=%d", ix.Len())
	}
}

func TestAddLengthMismatch(t *testing.T) {
	ix := newTestIndex(t, 3)
	_, err := ix.Add([][]float32{{1, 0, 0}}, []meta{{ID: "a"}, {ID: "b"}})
	var le *LengthError
	if !errors.As(err, &le) {
		t.Fatalf("Add: want LengthError got=%v", err)
	}
}

func TestSearchRanksByCosine(t *testing.T) {
	ix := newTestIndex(t, 2)
	// Stored vectors are normalized, so magnitude must not affect ranking.
	_, err := ix.Add(
		[][]float32{{10, 0}, {0, 1}, {1, 1}},
		[]meta{{ID: "x"}, {ID: "y"}, {ID: "diag"}},
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := ix.Search([]float32{1, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results: want=2 got=%d", len(results))
	}
	if results[0].Meta.ID != "x" {
		t.Fatalf("top result: want=x got=%s", results[0].Meta.ID)
	}
	if results[1].Meta.ID != "diag" {
		t.Fatalf("second result: want=diag got=%s", results[1].Meta.ID)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-5 {
		t.Fatalf("identical direction score: want≈1 got=%f", results[0].Score)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := newTestIndex(t, 4)
	results, err := ix.Search([]float32{1, 0, 0, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("empty index results: want=0 got=%d", len(results))
	}
}

func TestSearchFiltersAfterOverfetch(t *testing.T) {
	ix := newTestIndex(t, 2)
	vectors := make([][]float32, 30)
	metas := make([]meta, 30)
	for i := range vectors {
		owner := "alice"
		if i%3 == 0 {
			owner = "bob"
		}
		vectors[i] = []float32{1, float32(i) * 0.01}
		metas[i] = meta{ID: string(rune('a' + i)), Owner: owner}
	}
	if _, err := ix.Add(vectors, metas); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := ix.Search([]float32{1, 0}, 3, func(m meta) bool { return m.Owner == "bob" })
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("filtered results: want=3 got=%d", len(results))
	}
	for _, r := range results {
		if r.Meta.Owner != "bob" {
			t.Fatalf("filter leaked owner=%s", r.Meta.Owner)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not sorted: %f before %f", results[i-1].Score, results[i].Score)
		}
	}
}

func TestResolveGenerationCheck(t *testing.T) {
	ix := newTestIndex(t, 2)
	handles, err := ix.Add([][]float32{{1, 0}}, []meta{{ID: "a"}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := ix.Resolve(handles[0])
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != "a" {
		t.Fatalf("Resolve meta: want=a got=%s", got.ID)
	}
	stale := Handle{Pos: 0, Gen: handles[0].Gen + 1}
	if _, err := ix.Resolve(stale); err == nil {
		t.Fatal("Resolve with stale generation: want error, got nil")
	}
}

func TestHandleRoundTrip(t *testing.T) {
	h := Handle{Pos: 12345, Gen: 0xDEADBEEF}
	if got := HandleFromInt64(h.Int64()); got != h {
		t.Fatalf("round trip: want=%+v got=%+v", h, got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "chunks.idx")
	metaPath := filepath.Join(dir, "chunks.meta.json")

	ix := newTestIndex(t, 3)
	handles, err := ix.Add(
		[][]float32{{1, 0, 0}, {0, 2, 0}},
		[]meta{{ID: "a", Owner: "alice"}, {ID: "b", Owner: "bob"}},
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ix.Save(indexPath, metaPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := newTestIndex(t, 3)
	if err := loaded.Load(indexPath, metaPath); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded len: want=2 got=%d", loaded.Len())
	}
	if loaded.Generation() != handles[0].Gen {
		t.Fatalf("generation not restored: want=%d got=%d", handles[0].Gen, loaded.Generation())
	}
	got, err := loaded.Resolve(handles[1])
	if err != nil {
		t.Fatalf("Resolve after load: %v", err)
	}
	if got.ID != "b" {
		t.Fatalf("Resolve meta: want=b got=%s", got.ID)
	}
	results, err := loaded.Search([]float32{0, 1, 0}, 1, nil)
	if err != nil {
		t.Fatalf("Search after load: %v", err)
	}
	if len(results) != 1 || results[0].Meta.ID != "b" {
		t.Fatalf("search after load: want=b got=%+v", results)
	}
}

func TestLoadMissingFilesLeavesIndexEmpty(t *testing.T) {
	dir := t.TempDir()
	ix := newTestIndex(t, 3)
	if err := ix.Load(filepath.Join(dir, "none.idx"), filepath.Join(dir, "none.meta.json")); err != nil {
		t.Fatalf("Load of missing pair: %v", err)
	}
	if ix.Len() != 0 {
		t.Fatalf("len after missing load: want=0 got=%d", ix.Len())
	}
}

func TestLoadCountMismatchSkipsBareVectors(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "s.idx")
	metaPath := filepath.Join(dir, "s.meta.json")

	ix := newTestIndex(t, 2)
	if _, err := ix.Add([][]float32{{1, 0}, {0, 1}}, []meta{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ix.Save(indexPath, metaPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Shorter sidecar simulates a crash between index save and sidecar save.
	short := newTestIndex(t, 2)
	if _, err := short.Add([][]float32{{1, 0}}, []meta{{ID: "a"}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := short.Save(filepath.Join(dir, "x.idx"), metaPath); err != nil {
		t.Fatalf("Save sidecar: %v", err)
	}

	loaded := newTestIndex(t, 2)
	if err := loaded.Load(indexPath, metaPath); err != nil {
		t.Fatalf("Load with mismatched sidecar: %v", err)
	}
	results, err := loaded.Search([]float32{0, 1}, 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if int(r.Handle.Pos) >= 1 {
			t.Fatalf("position without metadata surfaced: %+v", r)
		}
	}
}
