package model

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-nock/internal/ir"
)

// Column metadata key carrying the blob's logical shape as a comma list.
const shapeMetaKey = "shape"

// ReadWeights loads an Arrow IPC weights container. Each column is one blob;
// the column name is "<layer>.<role>" and the shape rides in the column
// metadata. Blobs of differing sizes share a record as single-row list
// columns; flat columns are also accepted, with one element per row. Only
// element counts and shapes are extracted, the data itself is not copied.
func ReadWeights(path string) (map[string]*ir.Blob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights: %w", err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, fmt.Errorf("failed to read weights container: %w", err)
	}
	defer r.Close()

	blobs := make(map[string]*ir.Blob)
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read weights record %d: %w", i, err)
		}
		schema := rec.Schema()
		for c := 0; c < int(rec.NumCols()); c++ {
			field := schema.Field(c)
			col := rec.Column(c)

			var shape ir.Shape
			if idx := field.Metadata.FindKey(shapeMetaKey); idx >= 0 {
				shape, err = parseShape(field.Metadata.Values()[idx])
				if err != nil {
					return nil, fmt.Errorf("blob %q: %w", field.Name, err)
				}
			}
			blobs[field.Name] = &ir.Blob{Shape: shape, Elems: blobElems(col)}
		}
	}
	return blobs, nil
}

// blobElems counts the elements a column carries: the nested value count for
// list columns, the row count for flat ones.
func blobElems(col arrow.Array) int {
	switch c := col.(type) {
	case *array.List:
		return c.ListValues().Len()
	case *array.LargeList:
		return c.ListValues().Len()
	case *array.FixedSizeList:
		return c.ListValues().Len()
	}
	return col.Len()
}

func parseShape(s string) (ir.Shape, error) {
	parts := strings.Split(s, ",")
	shape := make(ir.Shape, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("malformed shape metadata %q", s)
		}
		if d < 0 {
			return nil, fmt.Errorf("negative dimension in shape metadata %q", s)
		}
		shape = append(shape, d)
	}
	return shape, nil
}

// splitBlobName separates a "<layer>.<role>" column name. Layer names may
// themselves contain dots, so the split is on the last one.
func splitBlobName(name string) (layer, role string, ok bool) {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return "", "", false
	}
	return name[:i], name[i+1:], true
}
