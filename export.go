package vecload

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/vecload/blobstore"
	"github.com/hupe1980/vecload/dataset"
	"github.com/hupe1980/vecload/internal/conv"
	"github.com/hupe1980/vecload/source"
	"github.com/hupe1980/vecload/vecs"
)

// Names of the arrays Export reads from a source.File.
const (
	TrainArray     = "train"
	TestArray      = "test"
	NeighborsArray = "neighbors"
)

// Export writes the train, test and neighbors arrays of src as a dataset into
// store. The manifest is written after all container files, so an interrupted
// export never leaves a dataset that appears complete.
//
// Neighbor ids of any integer type are narrowed to int32; an id outside the
// int32 range fails the export with *ErrNeighborOverflow.
func Export(ctx context.Context, src source.File, store blobstore.Store, optFns ...Option) (dataset.Manifest, error) {
	o := applyOptions(optFns)

	start := time.Now()
	m, err := export(ctx, src, store, &o)
	duration := time.Since(start)

	o.metricsCollector.RecordExport(int64(m.N)+2*int64(m.M), duration, err)
	o.logger.LogExport(ctx, m, duration, err)
	if err != nil {
		return dataset.Manifest{}, err
	}
	return m, nil
}

type exportArrays struct {
	train, test, neighbors source.Array
}

func (a *exportArrays) close() {
	for _, arr := range []source.Array{a.train, a.test, a.neighbors} {
		if arr != nil {
			_ = arr.Close()
		}
	}
}

func export(ctx context.Context, src source.File, store blobstore.Store, o *options) (dataset.Manifest, error) {
	if o.blockSize < 0 {
		return dataset.Manifest{}, fmt.Errorf("%w: %d", ErrInvalidBlockSize, o.blockSize)
	}

	arrays := &exportArrays{}
	defer arrays.close()

	m, err := inspect(src, arrays)
	if err != nil {
		return dataset.Manifest{}, err
	}

	exists, err := dataset.Exists(ctx, store)
	if err != nil {
		return m, err
	}
	if exists {
		if !o.force {
			return m, ErrDatasetExists
		}
		if err := dataset.Remove(ctx, store); err != nil {
			return m, err
		}
		o.logger.InfoContext(ctx, "removed existing dataset")
	}

	if err := writeFile(ctx, store, dataset.TrainName, o, func(w *vecs.Writer[float32]) (int, error) {
		return m.N, readBlocks(ctx, o, arrays.train, m.N, m.D, o.blockSize, 4, func(_ int, rec []float32) error {
			return w.Write(rec)
		})
	}); err != nil {
		return m, err
	}

	if err := writeFile(ctx, store, dataset.TestName, o, func(w *vecs.Writer[float32]) (int, error) {
		return m.M, readBlocks(ctx, o, arrays.test, m.M, m.D, 1, 4, func(_ int, rec []float32) error {
			return w.Write(rec)
		})
	}); err != nil {
		return m, err
	}

	if err := writeFile(ctx, store, dataset.GroundTruthName, o, func(w *vecs.Writer[int32]) (int, error) {
		return m.M, writeNeighbors(ctx, o, arrays.neighbors, m.M, m.K, w)
	}); err != nil {
		return m, err
	}

	return m, dataset.SaveManifest(ctx, store, m)
}

// inspect opens the three arrays and derives the manifest from their shapes.
func inspect(src source.File, arrays *exportArrays) (dataset.Manifest, error) {
	var (
		m   dataset.Manifest
		err error
	)

	arrays.train, m.N, m.D, err = openMatrix(src, TrainArray, source.Float32)
	if err != nil {
		return m, err
	}

	var testCols int
	arrays.test, m.M, testCols, err = openMatrix(src, TestArray, source.Float32)
	if err != nil {
		return m, err
	}
	if testCols != m.D {
		return m, &ErrShapeMismatch{
			Array:  TestArray,
			Reason: fmt.Sprintf("%d columns, train has %d", testCols, m.D),
			cause:  source.ErrShape,
		}
	}

	var neighborRows int
	arrays.neighbors, neighborRows, m.K, err = openMatrix(src, NeighborsArray,
		source.Int32, source.Uint32, source.Int64, source.Uint64)
	if err != nil {
		return m, err
	}
	if neighborRows != m.M {
		return m, &ErrShapeMismatch{
			Array:  NeighborsArray,
			Reason: fmt.Sprintf("%d rows, test has %d", neighborRows, m.M),
			cause:  source.ErrShape,
		}
	}

	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}

func openMatrix(src source.File, name string, dtypes ...source.DType) (source.Array, int, int, error) {
	a, err := src.Array(name)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open array %q: %w", name, err)
	}
	rows, cols, err := source.Matrix(a)
	if err != nil {
		return a, 0, 0, &ErrShapeMismatch{Array: name, Reason: fmt.Sprintf("shape %v", a.Shape()), cause: err}
	}
	for _, dt := range dtypes {
		if a.DType() == dt {
			return a, rows, cols, nil
		}
	}
	return a, 0, 0, &ErrShapeMismatch{
		Array:  name,
		Reason: fmt.Sprintf("element type %s, want one of %v", a.DType(), dtypes),
		cause:  source.ErrDType,
	}
}

// writeFile creates one container file and publishes it once fill succeeds.
func writeFile[T vecs.Scalar](ctx context.Context, store blobstore.Store, base string, o *options, fill func(w *vecs.Writer[T]) (int, error)) error {
	cw, err := dataset.CreateContainer(ctx, store, base, o.compression)
	if err != nil {
		return err
	}

	rows, err := fill(vecs.NewWriter[T](cw))
	if err == nil {
		err = cw.Close()
	} else {
		_ = cw.Abort()
	}
	o.logger.LogFile(ctx, cw.Name, rows, err)
	if err != nil {
		return fmt.Errorf("write %s: %w", cw.Name, err)
	}
	return nil
}

// readBlocks reads rows of a in blocks of block rows, the remainder row by
// row, and passes each row to emit. The block buffer is accounted against the
// resource controller.
func readBlocks[T any](ctx context.Context, o *options, a source.Array, rows, cols, block, elemSize int, emit func(row int, rec []T) error) error {
	block = max(1, min(block, rows))

	size := int64(block) * int64(cols) * int64(elemSize)
	if err := o.rc.AcquireMemory(ctx, size); err != nil {
		return err
	}
	defer o.rc.ReleaseMemory(size)

	buf := make([]T, block*cols)

	i := 0
	if block > 1 {
		for ; i+block <= rows; i += block {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := a.ReadRows(i, block, buf); err != nil {
				return fmt.Errorf("read rows [%d, %d): %w", i, i+block, err)
			}
			for r := 0; r < block; r++ {
				if err := emit(i+r, buf[r*cols:(r+1)*cols]); err != nil {
					return err
				}
			}
		}
	}

	row := buf[:cols]
	for ; i < rows; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.ReadRows(i, 1, row); err != nil {
			return fmt.Errorf("read row %d: %w", i, err)
		}
		if err := emit(i, row); err != nil {
			return err
		}
	}
	return nil
}

func writeNeighbors(ctx context.Context, o *options, a source.Array, rows, cols int, w *vecs.Writer[int32]) error {
	out := make([]int32, cols)

	switch a.DType() {
	case source.Int32:
		return readBlocks(ctx, o, a, rows, cols, 1, 4, func(_ int, rec []int32) error {
			return w.Write(rec)
		})
	case source.Uint32:
		return readBlocks(ctx, o, a, rows, cols, 1, 4, narrow(w, out, conv.ToInt32[uint32]))
	case source.Int64:
		return readBlocks(ctx, o, a, rows, cols, 1, 8, narrow(w, out, conv.ToInt32[int64]))
	case source.Uint64:
		return readBlocks(ctx, o, a, rows, cols, 1, 8, narrow(w, out, conv.ToInt32[uint64]))
	default:
		return fmt.Errorf("%w: %s", source.ErrDType, a.DType())
	}
}

func narrow[T any](w *vecs.Writer[int32], out []int32, cast func(T) (int32, error)) func(int, []T) error {
	return func(row int, rec []T) error {
		for j, v := range rec {
			id, err := cast(v)
			if err != nil {
				return &ErrNeighborOverflow{Row: row, Column: j, cause: err}
			}
			out[j] = id
		}
		return w.Write(out)
	}
}
