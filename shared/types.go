// Package shared holds the format-level types common to the converter and the
// reader: the cell-type and compression-tag registries, and the packed on-disk
// structures (header, index entry, UUID).
package shared

import "fmt"

// CellType is the closed set of numeric cell types a BMXt file may declare.
// Values 1..5 are valid on read; 0 (Unknown) is a sentinel only.
type CellType uint8

const (
	Unknown CellType = 0
	Int16   CellType = 1
	Int32   CellType = 2
	Int64   CellType = 3
	Float32 CellType = 4
	Float64 CellType = 5
)

// Numeric is the set of host types a CellType can be projected to/from.
type Numeric interface {
	~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// ByteWidth returns the on-disk size of one cell of the given type, and
// whether the type is recognized at all.
func ByteWidth(t CellType) (uint32, bool) {
	switch t {
	case Int16:
		return 2, true
	case Int32:
		return 4, true
	case Int64:
		return 8, true
	case Float32:
		return 4, true
	case Float64:
		return 8, true
	default:
		return 0, false
	}
}

// Name returns the display name for a cell type, "unknown" for anything not
// in the registry.
func Name(t CellType) string {
	switch t {
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// TypeFromName maps a display name back to a CellType, returning Unknown for
// anything it doesn't recognize. "float" and "double" are accepted as
// aliases for float32/float64, matching the original tool's CLI.
func TypeFromName(name string) CellType {
	switch name {
	case "int16":
		return Int16
	case "int32":
		return Int32
	case "int64":
		return Int64
	case "float32", "float":
		return Float32
	case "float64", "double":
		return Float64
	default:
		return Unknown
	}
}

// CellTypeFor resolves the CellType tag for a host numeric type T. The second
// return value is false if T has no corresponding tag.
func CellTypeFor[T Numeric]() (CellType, bool) {
	var zero T
	switch any(zero).(type) {
	case int16:
		return Int16, true
	case int32:
		return Int32, true
	case int64:
		return Int64, true
	case float32:
		return Float32, true
	case float64:
		return Float64, true
	default:
		return Unknown, false
	}
}

// CompressionTag is the closed set of compression algorithm tags the format
// reserves. Only Zstd is implemented; Gzip and Lz4 are reserved tags.
type CompressionTag uint8

const (
	Zstd CompressionTag = 0
	Gzip CompressionTag = 1
	Lz4  CompressionTag = 2
)

func CompressionName(c CompressionTag) string {
	switch c {
	case Zstd:
		return "zstd"
	case Gzip:
		return "gzip"
	case Lz4:
		return "lz4"
	default:
		return "unknown"
	}
}

func CompressionFromName(name string) (CompressionTag, bool) {
	switch name {
	case "zstd":
		return Zstd, true
	case "gzip":
		return Gzip, true
	case "lz4":
		return Lz4, true
	default:
		return 0, false
	}
}

// CeilDiv computes ceil(a/b) for positive integers.
func CeilDiv(a, b uint32) uint32 {
	if b == 0 {
		panic(fmt.Sprintf("shared: CeilDiv by zero (a=%d)", a))
	}
	return (a + b - 1) / b
}
