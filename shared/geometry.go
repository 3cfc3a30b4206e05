package shared

// Grid describes a matrix's block tiling: the matrix dimensions and block
// dimensions, plus the derived block-grid dimensions Bx and By.
type Grid struct {
	NRow, NCol              uint32
	BlockWidth, BlockHeight uint32
}

// Bx is the number of block columns: ceil(ncol/block_width).
func (g Grid) Bx() uint32 { return CeilDiv(g.NCol, g.BlockWidth) }

// By is the number of block rows: ceil(nrow/block_height).
func (g Grid) By() uint32 { return CeilDiv(g.NRow, g.BlockHeight) }

// BlockCount is Bx*By.
func (g Grid) BlockCount() uint32 { return g.Bx() * g.By() }

// BlockIndex returns the block index for grid coordinates (bx, by).
func (g Grid) BlockIndex(bx, by uint32) uint32 { return by*g.Bx() + bx }

// BlockCoords returns the (bx, by) grid coordinates for a block index.
func (g Grid) BlockCoords(index uint32) (bx, by uint32) {
	bx = index % g.Bx()
	by = index / g.Bx()
	return
}

// ActualWidth returns the number of columns actually present in block column
// bx (clipped at the right edge of the matrix).
func (g Grid) ActualWidth(bx uint32) uint32 {
	remain := g.NCol - bx*g.BlockWidth
	if remain < g.BlockWidth {
		return remain
	}
	return g.BlockWidth
}

// ActualHeight returns the number of rows actually present in block row by
// (clipped at the bottom edge of the matrix).
func (g Grid) ActualHeight(by uint32) uint32 {
	remain := g.NRow - by*g.BlockHeight
	if remain < g.BlockHeight {
		return remain
	}
	return g.BlockHeight
}
