package reader

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/biomxt/biomxt/cache"
	"github.com/biomxt/biomxt/convert"
	"github.com/biomxt/biomxt/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFile(t *testing.T, blockWidth, blockHeight uint32) string {
	t.Helper()
	input := "gene,s1,s2,s3\n" +
		"g1,1.5,2.5,3.5\n" +
		"g2,4.5,5.5,6.5\n" +
		"g3,7.5,8.5,9.5\n"
	inPath := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(inPath, []byte(input), 0o644))

	outPath := filepath.Join(t.TempDir(), "out.bmxt")
	_, _, err := convert.Convert(convert.Options{
		InputPath:   inPath,
		OutputPath:  outPath,
		BlockWidth:  blockWidth,
		BlockHeight: blockHeight,
		Separator:   ',',
		Compression: shared.Zstd,
		CellType:    shared.Float32,
	})
	require.NoError(t, err)
	return outPath
}

func TestReadRowMatchesSource(t *testing.T) {
	path := buildFile(t, 2, 2)
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	var buf []byte
	require.NoError(t, r.ReadRow(1, &buf))

	got := As[float32](buf).Slice()
	assert.Equal(t, []float32{4.5, 5.5, 6.5}, got)
}

func TestReadColumnMatchesSource(t *testing.T) {
	path := buildFile(t, 2, 2)
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	var buf []byte
	require.NoError(t, r.ReadColumn(2, &buf))

	got := As[float32](buf).Slice()
	assert.Equal(t, []float32{3.5, 6.5, 9.5}, got)
}

func TestReadRowByName(t *testing.T) {
	path := buildFile(t, 2, 2)
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	var buf []byte
	require.NoError(t, r.ReadRowByName("g3", &buf))
	got := As[float32](buf).Slice()
	assert.Equal(t, []float32{7.5, 8.5, 9.5}, got)

	err = r.ReadRowByName("missing", &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReadBlockOutOfRange(t *testing.T) {
	path := buildFile(t, 2, 2)
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	var buf []byte
	err = r.ReadBlock(999, &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrOutOfRange)
}

func TestReadAfterCloseErrors(t *testing.T) {
	path := buildFile(t, 2, 2)
	r, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	var buf []byte
	err = r.ReadRow(0, &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrClosed)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bmxt")
	require.NoError(t, os.WriteFile(path, make([]byte, shared.HeaderSize), 0o644))

	_, err := Open(path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrCorruptFile)
}

func TestOpenRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bmxt")
	require.NoError(t, os.WriteFile(path, make([]byte, 4), 0o644))

	_, err := Open(path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrCorruptFile)
}

func TestBlockCacheServesRepeatReads(t *testing.T) {
	path := buildFile(t, 2, 2)
	c := cache.New()
	r, err := Open(path, c)
	require.NoError(t, err)
	defer r.Close()

	var a, b []byte
	require.NoError(t, r.ReadRow(0, &a))
	require.NoError(t, r.ReadRow(0, &b))
	assert.Equal(t, a, b)
}

func TestViewFloat64At(t *testing.T) {
	path := buildFile(t, 2, 2)
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	var buf []byte
	require.NoError(t, r.ReadRow(0, &buf))

	view, err := NewView(shared.Float32, buf)
	require.NoError(t, err)
	require.Equal(t, 3, view.Len())
	assert.True(t, math.Abs(view.Float64At(0)-1.5) < 1e-6)
}
