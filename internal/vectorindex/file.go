package vectorindex

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

// Metadata keys stored in the parquet footer.
const (
	metaDimensions = "assessrec.dimensions"
	metaMetric     = "assessrec.metric"
	metaModel      = "assessrec.model"
	metaCount      = "assessrec.count"
)

// indexRow is one slot on disk.
type indexRow struct {
	Slot   int32     `parquet:"slot"`
	ID     string    `parquet:"id"`
	Vector []float32 `parquet:"vector"`
}

// Save writes the index as a single parquet file.
func Save(path string, ix *Index) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create index %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // closed explicitly below on the happy path

	w := parquet.NewGenericWriter[indexRow](f,
		parquet.KeyValueMetadata(metaDimensions, strconv.Itoa(ix.dim)),
		parquet.KeyValueMetadata(metaMetric, string(ix.metric)),
		parquet.KeyValueMetadata(metaModel, ix.model),
		parquet.KeyValueMetadata(metaCount, strconv.Itoa(len(ix.ids))),
	)

	rows := make([]indexRow, len(ix.ids))
	for i := range ix.ids {
		rows[i] = indexRow{Slot: int32(i), ID: ix.ids[i], Vector: ix.vectors[i]} //nolint:gosec // catalog-sized
	}
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("write index rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close index writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close index %s: %w", path, err)
	}
	return nil
}

// Load reads an index written by Save. Every failure is a startup failure.
func Load(path string) (*Index, error) {
	ix, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: index %s: %w", domain.ErrStartupFailure, path, err)
	}
	return ix, nil
}

func load(path string) (*Index, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("parquet open: %w", err)
	}

	dim, err := lookupInt(pf, metaDimensions)
	if err != nil {
		return nil, err
	}
	count, err := lookupInt(pf, metaCount)
	if err != nil {
		return nil, err
	}
	metricName, _ := pf.Lookup(metaMetric)
	metric, err := ParseMetric(metricName)
	if err != nil {
		return nil, err
	}
	model, _ := pf.Lookup(metaModel)

	rows, err := parquet.Read[indexRow](f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) != count {
		return nil, fmt.Errorf("footer says %d slots, file has %d", count, len(rows))
	}

	slices.SortFunc(rows, func(a, b indexRow) int { return int(a.Slot - b.Slot) })
	ids := make([]string, len(rows))
	vectors := make([][]float32, len(rows))
	for i, r := range rows {
		if int(r.Slot) != i {
			return nil, fmt.Errorf("slot sequence broken at %d (found %d)", i, r.Slot)
		}
		ids[i] = r.ID
		vectors[i] = r.Vector
	}
	return New(dim, metric, model, ids, vectors)
}

func lookupInt(pf *parquet.File, key string) (int, error) {
	raw, ok := pf.Lookup(key)
	if !ok {
		return 0, fmt.Errorf("missing metadata %q", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("metadata %q: %w", key, err)
	}
	return n, nil
}
