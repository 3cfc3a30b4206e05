package shared

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Magic is the fixed 4-byte file signature.
var Magic = [4]byte{'B', 'M', 'X', 't'}

// Version is the current on-disk format version written by this package.
const Version uint16 = 1

// HeaderSize is the fixed, packed size of Header on disk. Every field is
// written in order with no implicit padding, in little-endian byte order.
const HeaderSize = 4 + 2 + 1 + 1 + 4 + 4 + 4 + 4 + 4 + 4 + 8 + 8 + 16

// IndexEntrySize is the packed size of one IndexEntry on disk.
const IndexEntrySize = 8 + 4 + 4

// Header is the fixed-size, packed file header written at offset 0.
type Header struct {
	Magic            [4]byte
	VersionNo        uint16
	CellType         CellType
	Compression      CompressionTag
	NRow             uint32
	NCol             uint32
	BlockWidth       uint32
	BlockHeight      uint32
	BlockCount       uint32
	Padding          uint32
	BlockTableOffset uint64
	NameTableOffset  uint64
	UUID             uuid.UUID
}

// Encode writes the packed header representation to w.
func (h *Header) Encode(w io.Writer) error {
	b := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	b.Write(h.Magic[:])
	binary.Write(b, binary.LittleEndian, h.VersionNo)
	binary.Write(b, binary.LittleEndian, uint8(h.CellType))
	binary.Write(b, binary.LittleEndian, uint8(h.Compression))
	binary.Write(b, binary.LittleEndian, h.NRow)
	binary.Write(b, binary.LittleEndian, h.NCol)
	binary.Write(b, binary.LittleEndian, h.BlockWidth)
	binary.Write(b, binary.LittleEndian, h.BlockHeight)
	binary.Write(b, binary.LittleEndian, h.BlockCount)
	binary.Write(b, binary.LittleEndian, uint32(0))
	binary.Write(b, binary.LittleEndian, h.BlockTableOffset)
	binary.Write(b, binary.LittleEndian, h.NameTableOffset)
	b.Write(h.UUID[:])
	if b.Len() != HeaderSize {
		return fmt.Errorf("shared: encoded header is %d bytes, want %d", b.Len(), HeaderSize)
	}
	_, err := w.Write(b.Bytes())
	return err
}

// DecodeHeader reads a packed header from raw. raw must be at least
// HeaderSize bytes; only that length is checked here, and the magic, cell
// type and compression tag are returned without validation.
func DecodeHeader(raw []byte) (*Header, error) {
	if len(raw) < HeaderSize {
		return nil, fmt.Errorf("shared: header too short: %d bytes, want %d", len(raw), HeaderSize)
	}
	r := bytes.NewReader(raw[:HeaderSize])
	h := &Header{}
	io.ReadFull(r, h.Magic[:])
	binary.Read(r, binary.LittleEndian, &h.VersionNo)
	var cellType, compression uint8
	binary.Read(r, binary.LittleEndian, &cellType)
	binary.Read(r, binary.LittleEndian, &compression)
	h.CellType = CellType(cellType)
	h.Compression = CompressionTag(compression)
	binary.Read(r, binary.LittleEndian, &h.NRow)
	binary.Read(r, binary.LittleEndian, &h.NCol)
	binary.Read(r, binary.LittleEndian, &h.BlockWidth)
	binary.Read(r, binary.LittleEndian, &h.BlockHeight)
	binary.Read(r, binary.LittleEndian, &h.BlockCount)
	binary.Read(r, binary.LittleEndian, &h.Padding)
	binary.Read(r, binary.LittleEndian, &h.BlockTableOffset)
	binary.Read(r, binary.LittleEndian, &h.NameTableOffset)
	io.ReadFull(r, h.UUID[:])
	return h, nil
}

// IndexEntry is a (offset, stored_size, raw_size) triple describing a byte
// run in the file. Block-table entries use stored_size for the compressed
// length and raw_size for the decompressed length; name-table entries reuse
// the same shape with stored_size == raw_size (labels are never compressed).
type IndexEntry struct {
	Offset     uint64
	StoredSize uint32
	RawSize    uint32
}

func (e IndexEntry) Encode(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, e.Offset); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, e.StoredSize); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, e.RawSize)
}

func DecodeIndexEntry(raw []byte) (IndexEntry, error) {
	if len(raw) < IndexEntrySize {
		return IndexEntry{}, fmt.Errorf("shared: index entry too short: %d bytes, want %d", len(raw), IndexEntrySize)
	}
	r := bytes.NewReader(raw[:IndexEntrySize])
	var e IndexEntry
	binary.Read(r, binary.LittleEndian, &e.Offset)
	binary.Read(r, binary.LittleEndian, &e.StoredSize)
	binary.Read(r, binary.LittleEndian, &e.RawSize)
	return e, nil
}

// BlockKey identifies a cached block: the file it belongs to (by UUID) and
// its index within that file's block table. It is a plain comparable struct,
// usable directly as a Go map key — the idiomatic equivalent of the source
// implementation's hand-written hasher over std::unordered_map.
type BlockKey struct {
	FileUUID   uuid.UUID
	BlockIndex uint32
}

// NewFileUUID generates a fresh version-4 UUID for a file created by the
// converter.
func NewFileUUID() uuid.UUID {
	return uuid.New()
}
