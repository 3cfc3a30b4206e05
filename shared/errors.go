package shared

import "errors"

// The error kinds from the BioMXt error taxonomy. Callers distinguish them
// with errors.Is against these sentinels, composed with fmt.Errorf("...: %w").
var (
	// ErrBadArgument marks a caller-side configuration mistake: invalid
	// block dimensions, an empty buffer, an unknown separator, or an
	// unsupported compression tag / cell type at dispatch time.
	ErrBadArgument = errors.New("biomxt: bad argument")

	// ErrNotFound marks an unknown row or column label.
	ErrNotFound = errors.New("biomxt: not found")

	// ErrOutOfRange marks a row, column, or block index at or beyond its
	// bound.
	ErrOutOfRange = errors.New("biomxt: out of range")

	// ErrCorruptFile marks a structurally invalid file: bad magic, a
	// header too short to parse, a table offset beyond the file's length,
	// or a decompression failure. A read that runs past the end of the file
	// (a truncated block table, name table, label or block) is reported as
	// ErrIO, not ErrCorruptFile.
	ErrCorruptFile = errors.New("biomxt: corrupt file")

	// ErrIO wraps failures surfaced by the OS (open/read/write/seek).
	ErrIO = errors.New("biomxt: io error")

	// ErrParse marks a conversion-time parse failure: an unclosed quote,
	// a field-count mismatch, a numeric parse failure, or a narrow-integer
	// range violation.
	ErrParse = errors.New("biomxt: parse error")

	// ErrClosed marks use of a reader after Close.
	ErrClosed = errors.New("biomxt: file has been closed")
)
