// Package convert implements the single-pass CSV/TSV-to-BMXt converter: it
// streams the input file row by row, tiles completed row bands into
// compressed blocks, and backpatches the header once every table is written.
package convert

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/biomxt/biomxt/csv"
	"github.com/biomxt/biomxt/shared"
	"github.com/klauspost/compress/zstd"
)

// Options configures a single conversion run.
type Options struct {
	InputPath   string
	OutputPath  string
	BlockWidth  uint32
	BlockHeight uint32
	Separator   byte
	Compression shared.CompressionTag
	CellType    shared.CellType
}

// Convert runs the converter described by opts, dispatching to the numeric
// specialization matching opts.CellType, and returns the completed header
// plus any non-fatal warnings (duplicate labels) accumulated along the way.
func Convert(opts Options) (*shared.Header, []string, error) {
	switch opts.CellType {
	case shared.Int16:
		return convertTyped[int16](opts)
	case shared.Int32:
		return convertTyped[int32](opts)
	case shared.Int64:
		return convertTyped[int64](opts)
	case shared.Float32:
		return convertTyped[float32](opts)
	case shared.Float64:
		return convertTyped[float64](opts)
	default:
		return nil, nil, fmt.Errorf("%w: unsupported cell type %v", shared.ErrBadArgument, opts.CellType)
	}
}

func convertTyped[T shared.Numeric](opts Options) (*shared.Header, []string, error) {
	if opts.BlockWidth == 0 || opts.BlockHeight == 0 {
		return nil, nil, fmt.Errorf("%w: block width and height must be greater than 0", shared.ErrBadArgument)
	}
	if opts.Compression != shared.Zstd {
		return nil, nil, fmt.Errorf("%w: unsupported compression algorithm %q", shared.ErrBadArgument, shared.CompressionName(opts.Compression))
	}
	cellType, ok := shared.CellTypeFor[T]()
	if !ok {
		return nil, nil, fmt.Errorf("%w: unsupported cell type at dispatch", shared.ErrBadArgument)
	}

	in, err := os.Open(opts.InputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: opening input file: %v", shared.ErrIO, err)
	}
	defer in.Close()

	out, err := os.Create(opts.OutputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: creating output file: %v", shared.ErrIO, err)
	}
	defer out.Close()

	if _, err := out.Seek(shared.HeaderSize, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("%w: seeking past header: %v", shared.ErrIO, err)
	}

	w := bufio.NewWriter(out)
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: creating zstd encoder: %v", shared.ErrIO, err)
	}
	defer enc.Close()

	c := &converterState[T]{
		opts:      opts,
		cellType:  cellType,
		w:         w,
		enc:       enc,
		curOffset: shared.HeaderSize,
	}

	if err := c.run(in); err != nil {
		return nil, c.warnings, err
	}

	header, err := c.finish()
	if err != nil {
		return nil, c.warnings, err
	}

	if err := w.Flush(); err != nil {
		return nil, c.warnings, fmt.Errorf("%w: flushing output file: %v", shared.ErrIO, err)
	}
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return nil, c.warnings, fmt.Errorf("%w: seeking to write header: %v", shared.ErrIO, err)
	}
	if err := header.Encode(out); err != nil {
		return nil, c.warnings, fmt.Errorf("%w: writing header: %v", shared.ErrIO, err)
	}

	return header, c.warnings, nil
}

// converterState holds the single-pass working set for one conversion run:
// the row-band arena, the block table built so far, and label bookkeeping.
type converterState[T shared.Numeric] struct {
	opts     Options
	cellType shared.CellType

	w   *bufio.Writer
	enc *zstd.Encoder

	curOffset int64

	ncol       uint32
	colNames   [][]byte
	rowNames   [][]byte
	seenRow    map[string]bool
	seenCol    map[string]bool
	warnings   []string
	blockTable []shared.IndexEntry

	arena    []T // block_height * ncol, reused across bands
	bandRows uint32
	scratch  []T // reused tile scratch buffer
	parseBuf [][]byte
	raw      bytes.Buffer
	lineNo   uint32
}

func (c *converterState[T]) run(in *os.File) error {
	r := bufio.NewReaderSize(in, 1<<16)

	for {
		line, readErr := r.ReadBytes('\n')
		if len(line) > 0 {
			c.lineNo++
			if err := c.processLine(line); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("%w: reading input: %v", shared.ErrIO, readErr)
		}
	}

	if c.bandRows > 0 {
		if err := c.flushBand(); err != nil {
			return err
		}
	}
	return nil
}

func (c *converterState[T]) processLine(line []byte) error {
	end := csv.TrimEOL(line)
	if end == 0 || line[0] == '#' {
		return nil
	}

	if c.colNames == nil {
		return c.parseHeaderLine(line)
	}
	return c.parseDataLine(line)
}

func (c *converterState[T]) parseHeaderLine(line []byte) error {
	total, err := csv.CountFields(line, c.opts.Separator)
	if err != nil {
		return fmt.Errorf("%w: header line: %v", shared.ErrParse, err)
	}
	if total < 1 {
		return fmt.Errorf("%w: header line has no fields", shared.ErrParse)
	}

	fields := make([][]byte, total)
	if _, err := csv.ParseFields(line, c.opts.Separator, fields); err != nil {
		return fmt.Errorf("%w: header line: %v", shared.ErrParse, err)
	}

	c.ncol = uint32(total - 1)
	c.colNames = make([][]byte, c.ncol)
	c.seenCol = make(map[string]bool, c.ncol)
	for i, f := range fields[1:] {
		name := append([]byte(nil), f...)
		c.colNames[i] = name
		if c.seenCol[string(name)] {
			c.warnings = append(c.warnings, fmt.Sprintf("duplicate column label %q", name))
		}
		c.seenCol[string(name)] = true
	}

	c.seenRow = make(map[string]bool)
	c.arena = make([]T, c.opts.BlockHeight*c.ncol)
	c.scratch = make([]T, c.opts.BlockWidth*c.opts.BlockHeight)
	c.parseBuf = make([][]byte, c.ncol+1)
	return nil
}

func (c *converterState[T]) parseDataLine(line []byte) error {
	expected := int(c.ncol) + 1
	fields := c.parseBuf
	n, err := csv.ParseFields(line, c.opts.Separator, fields)
	if err != nil {
		return fmt.Errorf("%w: line %d: %v", shared.ErrParse, c.lineNo, err)
	}
	if n != expected {
		return fmt.Errorf("%w: line %d has %d cells (rowname excluded), expected %d", shared.ErrParse, c.lineNo, n-1, c.ncol)
	}

	rowName := append([]byte(nil), fields[0]...)
	if c.seenRow[string(rowName)] {
		c.warnings = append(c.warnings, fmt.Sprintf("duplicate row label %q at line %d", rowName, c.lineNo))
	}
	c.seenRow[string(rowName)] = true
	c.rowNames = append(c.rowNames, rowName)

	base := c.bandRows * c.ncol
	for i := uint32(0); i < c.ncol; i++ {
		v, err := parseCell[T](fields[i+1])
		if err != nil {
			return fmt.Errorf("%w: line %d, column %d: %v", shared.ErrParse, c.lineNo, i+1, err)
		}
		c.arena[base+i] = v
	}
	c.bandRows++

	if c.bandRows == c.opts.BlockHeight {
		if err := c.flushBand(); err != nil {
			return err
		}
		c.bandRows = 0
	}
	return nil
}

// flushBand slices the current row band (c.bandRows rows deep) into
// block_width-wide tiles, compresses each, and records an index entry. Block
// indices fall out of flush order: bands are processed top-to-bottom as they
// fill, and within a band tiles are emitted left-to-right, which is exactly
// the block-index formula in the format (by*Bx + bx).
func (c *converterState[T]) flushBand() error {
	bx := uint32(0)
	for bx*c.opts.BlockWidth < c.ncol {
		actualWidth := c.opts.BlockWidth
		if remain := c.ncol - bx*c.opts.BlockWidth; remain < actualWidth {
			actualWidth = remain
		}

		tile := c.scratch[:actualWidth*c.bandRows]
		for row := uint32(0); row < c.bandRows; row++ {
			src := c.arena[row*c.ncol+bx*c.opts.BlockWidth : row*c.ncol+bx*c.opts.BlockWidth+actualWidth]
			copy(tile[row*actualWidth:(row+1)*actualWidth], src)
		}

		c.raw.Reset()
		if err := binary.Write(&c.raw, binary.LittleEndian, tile); err != nil {
			return fmt.Errorf("%w: encoding tile: %v", shared.ErrIO, err)
		}

		compressed := c.enc.EncodeAll(c.raw.Bytes(), nil)
		n, err := c.w.Write(compressed)
		if err != nil {
			return fmt.Errorf("%w: writing block: %v", shared.ErrIO, err)
		}

		c.blockTable = append(c.blockTable, shared.IndexEntry{
			Offset:     uint64(c.curOffset),
			StoredSize: uint32(n),
			RawSize:    uint32(c.raw.Len()),
		})
		c.curOffset += int64(n)

		bx++
	}
	return nil
}

// finish writes the label bytes, block table, and name table, and returns
// the completed header (not yet written to the file — the caller backpatches
// offset 0 once the writer has been flushed).
func (c *converterState[T]) finish() (*shared.Header, error) {
	if c.colNames == nil {
		return nil, fmt.Errorf("%w: input file has no header line", shared.ErrParse)
	}

	nameEntries := make([]shared.IndexEntry, 0, len(c.rowNames)+len(c.colNames))
	writeLabels := func(names [][]byte) error {
		for _, name := range names {
			if _, err := c.w.Write(name); err != nil {
				return fmt.Errorf("%w: writing label: %v", shared.ErrIO, err)
			}
			nameEntries = append(nameEntries, shared.IndexEntry{
				Offset:     uint64(c.curOffset),
				StoredSize: uint32(len(name)),
				RawSize:    uint32(len(name)),
			})
			c.curOffset += int64(len(name))
		}
		return nil
	}
	if err := writeLabels(c.rowNames); err != nil {
		return nil, err
	}
	if err := writeLabels(c.colNames); err != nil {
		return nil, err
	}

	blockTableOffset := c.curOffset
	for _, e := range c.blockTable {
		if err := e.Encode(c.w); err != nil {
			return nil, fmt.Errorf("%w: writing block table: %v", shared.ErrIO, err)
		}
		c.curOffset += shared.IndexEntrySize
	}

	nameTableOffset := c.curOffset
	for _, e := range nameEntries {
		if err := e.Encode(c.w); err != nil {
			return nil, fmt.Errorf("%w: writing name table: %v", shared.ErrIO, err)
		}
		c.curOffset += shared.IndexEntrySize
	}

	header := &shared.Header{
		Magic:            shared.Magic,
		VersionNo:        shared.Version,
		CellType:         c.cellType,
		Compression:      c.opts.Compression,
		NRow:             uint32(len(c.rowNames)),
		NCol:             c.ncol,
		BlockWidth:       c.opts.BlockWidth,
		BlockHeight:      c.opts.BlockHeight,
		BlockCount:       uint32(len(c.blockTable)),
		BlockTableOffset: uint64(blockTableOffset),
		NameTableOffset:  uint64(nameTableOffset),
		UUID:             shared.NewFileUUID(),
	}
	return header, nil
}
