// Package reader implements the read-side of the BMXt format: opening a file,
// loading its block table and name table, and serving whole blocks, rows, and
// columns against a shared or private LRU block cache.
package reader

import (
	"fmt"
	"os"

	"github.com/biomxt/biomxt/cache"
	"github.com/biomxt/biomxt/shared"
	"github.com/klauspost/compress/zstd"
)

// Reader is a single open BMXt file. It is not safe for concurrent use by
// multiple goroutines without external synchronization beyond the cache
// itself, which is safe to share across readers.
type Reader struct {
	file   *os.File
	header shared.Header
	grid   shared.Grid

	blockTable []shared.IndexEntry

	rowNames []string
	colNames []string
	rowMap   map[string]uint32
	colMap   map[string]uint32

	cache      *cache.BlockCache
	ownedCache bool
	dec        *zstd.Decoder

	cellSize uint32
	closed   bool

	maxCompressedBlockSize   uint32
	maxUncompressedBlockSize uint32
}

// Open opens path and loads its header, block table, and name table into
// memory. If blockCache is nil, the reader creates and owns a private cache
// sized to the heuristic ceiling max(Bx, By) * (max_uncompressed_block_size +
// key overhead), matching the source implementation's default sizing.
func Open(path string, blockCache *cache.BlockCache) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening file: %v", shared.ErrIO, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat file: %v", shared.ErrIO, err)
	}
	fileSize := stat.Size()

	if fileSize < shared.HeaderSize {
		f.Close()
		return nil, fmt.Errorf("%w: bad header size", shared.ErrCorruptFile)
	}

	raw := make([]byte, shared.HeaderSize)
	if _, err := f.ReadAt(raw, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: reading header: %v", shared.ErrIO, err)
	}
	header, err := shared.DecodeHeader(raw)
	if err != nil {
		f.Close()
		return nil, err
	}
	if header.Magic != shared.Magic {
		f.Close()
		return nil, fmt.Errorf("%w: bad magic: %q", shared.ErrCorruptFile, header.Magic[:])
	}

	cellSize, ok := shared.ByteWidth(header.CellType)
	if !ok {
		f.Close()
		return nil, fmt.Errorf("%w: unknown cell type tag %d", shared.ErrCorruptFile, header.CellType)
	}
	if header.Compression != shared.Zstd {
		f.Close()
		return nil, fmt.Errorf("%w: unsupported compression tag %d", shared.ErrCorruptFile, header.Compression)
	}

	r := &Reader{
		file:   f,
		header: *header,
		grid: shared.Grid{
			NRow:        header.NRow,
			NCol:        header.NCol,
			BlockWidth:  header.BlockWidth,
			BlockHeight: header.BlockHeight,
		},
		cellSize: cellSize,
	}

	if int64(header.BlockTableOffset) >= fileSize {
		f.Close()
		return nil, fmt.Errorf("%w: block table offset [%d] exceeds file size [%d]", shared.ErrCorruptFile, header.BlockTableOffset, fileSize)
	}
	blockTableBytes := make([]byte, int64(header.BlockCount)*shared.IndexEntrySize)
	if _, err := f.ReadAt(blockTableBytes, int64(header.BlockTableOffset)); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: reading block table: %v", shared.ErrIO, err)
	}
	r.blockTable = make([]shared.IndexEntry, header.BlockCount)
	for i := range r.blockTable {
		e, err := shared.DecodeIndexEntry(blockTableBytes[i*shared.IndexEntrySize:])
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: decoding block table: %v", shared.ErrCorruptFile, err)
		}
		r.blockTable[i] = e
		if e.StoredSize > r.maxCompressedBlockSize {
			r.maxCompressedBlockSize = e.StoredSize
		}
		if e.RawSize > r.maxUncompressedBlockSize {
			r.maxUncompressedBlockSize = e.RawSize
		}
	}

	if blockCache != nil {
		r.cache = blockCache
	} else {
		limit := int(r.grid.Bx())
		if by := int(r.grid.By()); by > limit {
			limit = by
		}
		limit *= int(r.maxUncompressedBlockSize) + cache.KeyOverhead
		r.cache = cache.NewWithLimit(limit)
		r.ownedCache = true
	}

	if int64(header.NameTableOffset) >= fileSize {
		f.Close()
		return nil, fmt.Errorf("%w: name table offset [%d] exceeds file size [%d]", shared.ErrCorruptFile, header.NameTableOffset, fileSize)
	}
	nameCount := int64(header.NRow) + int64(header.NCol)
	nameTableBytes := make([]byte, nameCount*shared.IndexEntrySize)
	if _, err := f.ReadAt(nameTableBytes, int64(header.NameTableOffset)); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: reading name table: %v", shared.ErrIO, err)
	}
	nameEntries := make([]shared.IndexEntry, nameCount)
	for i := range nameEntries {
		e, err := shared.DecodeIndexEntry(nameTableBytes[i*shared.IndexEntrySize:])
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: decoding name table: %v", shared.ErrCorruptFile, err)
		}
		nameEntries[i] = e
	}

	readLabel := func(e shared.IndexEntry) (string, error) {
		buf := make([]byte, e.RawSize)
		if _, err := f.ReadAt(buf, int64(e.Offset)); err != nil {
			return "", fmt.Errorf("%w: reading label: %v", shared.ErrIO, err)
		}
		return string(buf), nil
	}

	r.rowNames = make([]string, header.NRow)
	r.rowMap = make(map[string]uint32, header.NRow)
	for i := uint32(0); i < header.NRow; i++ {
		name, err := readLabel(nameEntries[i])
		if err != nil {
			f.Close()
			return nil, err
		}
		r.rowNames[i] = name
		r.rowMap[name] = i
	}

	r.colNames = make([]string, header.NCol)
	r.colMap = make(map[string]uint32, header.NCol)
	for i := uint32(0); i < header.NCol; i++ {
		name, err := readLabel(nameEntries[int64(header.NRow)+int64(i)])
		if err != nil {
			f.Close()
			return nil, err
		}
		r.colNames[i] = name
		r.colMap[name] = i
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: creating zstd decoder: %v", shared.ErrIO, err)
	}
	r.dec = dec

	return r, nil
}

// Close releases the file handle and decompressor. It does not touch a
// cache supplied by the caller, since that cache may be shared with other
// open readers.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.dec.Close()
	return r.file.Close()
}

func (r *Reader) checkOpen() error {
	if r.closed {
		return shared.ErrClosed
	}
	return nil
}

// Header returns the decoded file header.
func (r *Reader) Header() (shared.Header, error) {
	if err := r.checkOpen(); err != nil {
		return shared.Header{}, err
	}
	return r.header, nil
}

// MaxCompressedBlockSize returns the largest stored (compressed) block size
// seen in the block table.
func (r *Reader) MaxCompressedBlockSize() uint32 { return r.maxCompressedBlockSize }

// MaxUncompressedBlockSize returns the largest raw (decompressed) block size
// seen in the block table.
func (r *Reader) MaxUncompressedBlockSize() uint32 { return r.maxUncompressedBlockSize }

// BlockCacheMemoryLimit returns the active cache's byte ceiling.
func (r *Reader) BlockCacheMemoryLimit() int { return r.cache.GetMemoryLimit() }

// ReadBlock decodes block index into dst, growing it as needed, serving it
// from the shared cache when present. A cache miss reads the compressed
// bytes from disk, decompresses them, verifies the decompressed length
// against the recorded raw_size, and inserts a copy into the cache.
func (r *Reader) ReadBlock(index uint32, dst *[]byte) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if index >= r.header.BlockCount {
		return fmt.Errorf("%w: block index [%d] exceeds block count [%d]", shared.ErrOutOfRange, index, r.header.BlockCount)
	}
	entry := r.blockTable[index]

	key := shared.BlockKey{FileUUID: r.header.UUID, BlockIndex: index}
	if r.cache.GetBlockData(key, dst, 0, int(entry.RawSize)) {
		return nil
	}

	compressed := make([]byte, entry.StoredSize)
	if _, err := r.file.ReadAt(compressed, int64(entry.Offset)); err != nil {
		return fmt.Errorf("%w: reading block [%d] from file: %v", shared.ErrIO, index, err)
	}

	decoded, err := r.dec.DecodeAll(compressed, make([]byte, 0, entry.RawSize))
	if err != nil {
		return fmt.Errorf("%w: decompressing block [%d]: %v", shared.ErrCorruptFile, index, err)
	}
	if uint32(len(decoded)) != entry.RawSize {
		return fmt.Errorf("%w: block [%d] decompressed to %d bytes, expected %d", shared.ErrCorruptFile, index, len(decoded), entry.RawSize)
	}

	if cap(*dst) < len(decoded) {
		*dst = make([]byte, len(decoded))
	} else {
		*dst = (*dst)[:len(decoded)]
	}
	copy(*dst, decoded)

	cached := make([]byte, len(decoded))
	copy(cached, decoded)
	r.cache.Insert(key, cached)

	return nil
}

// ReadRow decodes the full row at rowIndex into dst (ncol*cellSize bytes),
// assembling it from every block in that block row, left to right.
func (r *Reader) ReadRow(rowIndex uint32, dst *[]byte) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if rowIndex >= r.header.NRow {
		return fmt.Errorf("%w: row index [%d] exceeds row count [%d]", shared.ErrOutOfRange, rowIndex, r.header.NRow)
	}

	rowBytes := r.header.NCol * r.cellSize
	if uint32(cap(*dst)) < rowBytes {
		*dst = make([]byte, rowBytes)
	} else {
		*dst = (*dst)[:rowBytes]
	}

	by := rowIndex / r.grid.BlockHeight
	rowInBlock := rowIndex % r.grid.BlockHeight

	var blockBuf []byte
	for bx := uint32(0); bx < r.grid.Bx(); bx++ {
		blockIdx := r.grid.BlockIndex(bx, by)
		if err := r.ReadBlock(blockIdx, &blockBuf); err != nil {
			return err
		}

		actualWidth := r.grid.ActualWidth(bx)
		rowStart := rowInBlock * actualWidth * r.cellSize
		n := actualWidth * r.cellSize
		copy((*dst)[bx*r.grid.BlockWidth*r.cellSize:], blockBuf[rowStart:rowStart+n])
	}
	return nil
}

// ReadRowByName resolves name to a row index and delegates to ReadRow.
func (r *Reader) ReadRowByName(name string, dst *[]byte) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	idx, ok := r.rowMap[name]
	if !ok {
		return fmt.Errorf("%w: row name %q", shared.ErrNotFound, name)
	}
	return r.ReadRow(idx, dst)
}

// ReadColumn decodes the full column at colIndex into dst (nrow*cellSize
// bytes), assembling it from every block in that block column, top to
// bottom.
func (r *Reader) ReadColumn(colIndex uint32, dst *[]byte) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if colIndex >= r.header.NCol {
		return fmt.Errorf("%w: column index [%d] exceeds column count [%d]", shared.ErrOutOfRange, colIndex, r.header.NCol)
	}

	colBytes := r.header.NRow * r.cellSize
	if uint32(cap(*dst)) < colBytes {
		*dst = make([]byte, colBytes)
	} else {
		*dst = (*dst)[:colBytes]
	}

	bx := colIndex / r.grid.BlockWidth
	colInBlock := colIndex % r.grid.BlockWidth
	actualWidth := r.grid.ActualWidth(bx)

	var blockBuf []byte
	for by := uint32(0); by < r.grid.By(); by++ {
		blockIdx := r.grid.BlockIndex(bx, by)
		if err := r.ReadBlock(blockIdx, &blockBuf); err != nil {
			return err
		}

		actualHeight := r.grid.ActualHeight(by)
		cellOffset := by * r.grid.BlockHeight * r.cellSize
		for i := uint32(0); i < actualHeight; i++ {
			srcOff := (i*actualWidth + colInBlock) * r.cellSize
			dstOff := cellOffset + i*r.cellSize
			copy((*dst)[dstOff:dstOff+r.cellSize], blockBuf[srcOff:srcOff+r.cellSize])
		}
	}
	return nil
}

// ReadColumnByName resolves name to a column index and delegates to
// ReadColumn.
func (r *Reader) ReadColumnByName(name string, dst *[]byte) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	idx, ok := r.colMap[name]
	if !ok {
		return fmt.Errorf("%w: column name %q", shared.ErrNotFound, name)
	}
	return r.ReadColumn(idx, dst)
}

// RowNames returns every row label, in on-disk order.
func (r *Reader) RowNames() ([]string, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.rowNames, nil
}

// ColumnNames returns every column label, in on-disk order.
func (r *Reader) ColumnNames() ([]string, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.colNames, nil
}

// RowNamesAt returns the labels at the given row indices, in request order.
func (r *Reader) RowNamesAt(indices []uint32) ([]string, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= r.header.NRow {
			return nil, fmt.Errorf("%w: row index [%d]", shared.ErrOutOfRange, idx)
		}
		out = append(out, r.rowNames[idx])
	}
	return out, nil
}

// ColumnNamesAt returns the labels at the given column indices, in request
// order.
func (r *Reader) ColumnNamesAt(indices []uint32) ([]string, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= r.header.NCol {
			return nil, fmt.Errorf("%w: column index [%d]", shared.ErrOutOfRange, idx)
		}
		out = append(out, r.colNames[idx])
	}
	return out, nil
}

// RowIndices resolves a batch of row names to indices, in request order.
func (r *Reader) RowIndices(names []string) ([]uint32, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]uint32, 0, len(names))
	for _, name := range names {
		idx, ok := r.rowMap[name]
		if !ok {
			return nil, fmt.Errorf("%w: row name %q", shared.ErrNotFound, name)
		}
		out = append(out, idx)
	}
	return out, nil
}

// ColumnIndices resolves a batch of column names to indices, in request
// order.
func (r *Reader) ColumnIndices(names []string) ([]uint32, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]uint32, 0, len(names))
	for _, name := range names {
		idx, ok := r.colMap[name]
		if !ok {
			return nil, fmt.Errorf("%w: column name %q", shared.ErrNotFound, name)
		}
		out = append(out, idx)
	}
	return out, nil
}
