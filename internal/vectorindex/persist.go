package vectorindex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	fileMagic   = "EVIX"
	fileVersion = uint32(1)
)

type sidecar[M any] struct {
	Generation uint32 `json:"generation"`
	Count      int    `json:"count"`
	Metadata   []M    `json:"metadata"`
}

// Save writes the vectors to indexPath and the metadata sidecar to
// metaPath. Both files are written through a temp file and renamed so a
// crash mid-save never leaves a truncated artifact behind.
func (ix *Index[M]) Save(indexPath, metaPath string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	count := len(ix.vectors) / ix.dim
	if err := writeAtomic(indexPath, func(w *bufio.Writer) error {
		if _, err := w.WriteString(fileMagic); err != nil {
			return err
		}
		for _, v := range []uint32{fileVersion, uint32(ix.dim), uint32(count), ix.gen} {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return err
			}
		}
		return binary.Write(w, binary.LittleEndian, ix.vectors)
	}); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}

	side := sidecar[M]{Generation: ix.gen, Count: len(ix.metas), Metadata: ix.metas}
	if err := writeAtomic(metaPath, func(w *bufio.Writer) error {
		return json.NewEncoder(w).Encode(side)
	}); err != nil {
		return fmt.Errorf("write metadata sidecar: %w", err)
	}
	return nil
}

// Load replaces the index contents from a saved pair. A missing pair
// leaves the index empty without error. A vector/metadata count mismatch
// is logged and tolerated; search simply skips positions with no metadata.
func (ix *Index[M]) Load(indexPath, metaPath string) error {
	f, err := os.Open(indexPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("read index header: %w", err)
	}
	if string(magic) != fileMagic {
		return fmt.Errorf("index file %s: bad magic %q", indexPath, magic)
	}
	var version, dim, count, gen uint32
	for _, dst := range []*uint32{&version, &dim, &count, &gen} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return fmt.Errorf("read index header: %w", err)
		}
	}
	if version != fileVersion {
		return fmt.Errorf("index file %s: unsupported version %d", indexPath, version)
	}
	if int(dim) != ix.dim {
		return &DimensionError{Want: ix.dim, Got: int(dim)}
	}
	vectors := make([]float32, int(count)*ix.dim)
	if err := binary.Read(r, binary.LittleEndian, vectors); err != nil {
		return fmt.Errorf("read index vectors: %w", err)
	}

	var side sidecar[M]
	mf, err := os.Open(metaPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("open metadata sidecar: %w", err)
		}
		ix.log.Warn("metadata sidecar missing, loading vectors without metadata", "path", metaPath)
	} else {
		defer mf.Close()
		if err := json.NewDecoder(mf).Decode(&side); err != nil {
			return fmt.Errorf("decode metadata sidecar: %w", err)
		}
	}

	if len(side.Metadata) != int(count) {
		ix.log.Warn("index/metadata count mismatch",
			"index_path", indexPath, "vectors", count, "metadata", len(side.Metadata))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.vectors = vectors
	ix.metas = side.Metadata
	ix.gen = gen
	return nil
}

func writeAtomic(path string, write func(w *bufio.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := write(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
