package reader

import (
	"fmt"
	"unsafe"

	"github.com/biomxt/biomxt/shared"
)

// View is a non-owning, runtime-typed reinterpretation of a decoded byte
// buffer (a whole block, a row, or a column) as its declared numeric cell
// type. It never copies the backing bytes.
type View struct {
	cellType shared.CellType
	raw      []byte
}

// NewView wraps raw under cellType. len(raw) must be a whole multiple of the
// type's byte width.
func NewView(cellType shared.CellType, raw []byte) (View, error) {
	width, ok := shared.ByteWidth(cellType)
	if !ok {
		return View{}, fmt.Errorf("%w: unknown cell type tag %d", shared.ErrBadArgument, cellType)
	}
	if len(raw)%int(width) != 0 {
		return View{}, fmt.Errorf("%w: buffer length %d is not a multiple of cell width %d", shared.ErrCorruptFile, len(raw), width)
	}
	return View{cellType: cellType, raw: raw}, nil
}

// CellType reports the view's declared numeric type.
func (v View) CellType() shared.CellType { return v.cellType }

// Len reports the number of cells in the view.
func (v View) Len() int {
	width, _ := shared.ByteWidth(v.cellType)
	return len(v.raw) / int(width)
}

// Float64At returns the cell at i widened to float64, regardless of the
// view's underlying integer or float type. It panics if the view's cell type
// is not one of the five registered types (only possible for a zero View).
func (v View) Float64At(i int) float64 {
	switch v.cellType {
	case shared.Int16:
		return float64(Typed[int16]{raw: v.raw}.At(i))
	case shared.Int32:
		return float64(Typed[int32]{raw: v.raw}.At(i))
	case shared.Int64:
		return float64(Typed[int64]{raw: v.raw}.At(i))
	case shared.Float32:
		return float64(Typed[float32]{raw: v.raw}.At(i))
	case shared.Float64:
		return Typed[float64]{raw: v.raw}.At(i)
	default:
		panic(fmt.Sprintf("reader: cell type %d has no numeric projection", v.cellType))
	}
}

// Typed is a non-owning, compile-time-typed reinterpretation of a decoded
// byte buffer as a slice of T. The caller is responsible for knowing the
// buffer was decoded under the matching shared.CellType; As does the bounds
// check NewView leaves to the runtime-typed path.
type Typed[T shared.Numeric] struct {
	raw []byte
}

// As reinterprets raw in place as a slice of T via unsafe.Slice, the same
// zero-copy technique used to reinterpret on-disk byte runs as typed arrays
// elsewhere in the ecosystem. It panics if raw's length is not a multiple of
// sizeof(T).
func As[T shared.Numeric](raw []byte) Typed[T] {
	var zero T
	width := int(unsafe.Sizeof(zero))
	if len(raw)%width != 0 {
		panic(fmt.Sprintf("reader: buffer length %d is not a multiple of cell width %d", len(raw), width))
	}
	return Typed[T]{raw: raw}
}

// Len reports the number of cells.
func (t Typed[T]) Len() int {
	var zero T
	return len(t.raw) / int(unsafe.Sizeof(zero))
}

// At returns the cell at index i.
func (t Typed[T]) At(i int) T {
	return t.Slice()[i]
}

// Slice returns the full buffer reinterpreted as []T, with no copy. The
// returned slice aliases raw and must not outlive it — in particular, not
// past the next call that reuses the same destination buffer (e.g. ReadBlock
// called again with the same *[]byte).
func (t Typed[T]) Slice() []T {
	var zero T
	width := int(unsafe.Sizeof(zero))
	if width == 0 || len(t.raw) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(t.raw))), len(t.raw)/width)
}
