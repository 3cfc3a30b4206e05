package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/biomxt/biomxt/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConvertFloat32TwoByTwoBlocks(t *testing.T) {
	input := "gene,s1,s2,s3\n" +
		"g1,1.5,2.5,3.5\n" +
		"g2,4.5,5.5,6.5\n" +
		"g3,7.5,8.5,9.5\n"
	in := writeInput(t, input)
	out := filepath.Join(t.TempDir(), "out.bmxt")

	header, warnings, err := Convert(Options{
		InputPath:   in,
		OutputPath:  out,
		BlockWidth:  2,
		BlockHeight: 2,
		Separator:   ',',
		Compression: shared.Zstd,
		CellType:    shared.Float32,
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, shared.Magic, header.Magic)
	assert.Equal(t, shared.Float32, header.CellType)
	assert.Equal(t, uint32(3), header.NRow)
	assert.Equal(t, uint32(3), header.NCol)
	// Bx=ceil(3/2)=2, By=ceil(3/2)=2 -> 4 blocks
	assert.Equal(t, uint32(4), header.BlockCount)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	decoded, err := shared.DecodeHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, header.UUID, decoded.UUID)
	assert.Equal(t, header.BlockTableOffset, decoded.BlockTableOffset)
}

func TestConvertQuotedLabelsParsedAsSingleFields(t *testing.T) {
	input := "gene,\"sample, one\",s2\n" +
		"\"g,1\",1,2\n"
	in := writeInput(t, input)
	out := filepath.Join(t.TempDir(), "out.bmxt")

	header, _, err := Convert(Options{
		InputPath:   in,
		OutputPath:  out,
		BlockWidth:  2,
		BlockHeight: 2,
		Separator:   ',',
		Compression: shared.Zstd,
		CellType:    shared.Int32,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), header.NRow)
	assert.Equal(t, uint32(2), header.NCol)
}

func TestConvertDuplicateLabelsWarn(t *testing.T) {
	input := "gene,s1,s2\n" +
		"g1,1,2\n" +
		"g1,3,4\n"
	in := writeInput(t, input)
	out := filepath.Join(t.TempDir(), "out.bmxt")

	_, warnings, err := Convert(Options{
		InputPath:   in,
		OutputPath:  out,
		BlockWidth:  2,
		BlockHeight: 2,
		Separator:   ',',
		Compression: shared.Zstd,
		CellType:    shared.Int32,
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "g1")
}

func TestConvertUnclosedQuoteAborts(t *testing.T) {
	input := "gene,s1,s2\n" +
		"g1,\"1,2\n"
	in := writeInput(t, input)
	out := filepath.Join(t.TempDir(), "out.bmxt")

	_, _, err := Convert(Options{
		InputPath:   in,
		OutputPath:  out,
		BlockWidth:  2,
		BlockHeight: 2,
		Separator:   ',',
		Compression: shared.Zstd,
		CellType:    shared.Int32,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrParse)
}

func TestConvertWrongArityAborts(t *testing.T) {
	input := "gene,s1,s2\n" +
		"g1,1,2\n" +
		"g2,3\n"
	in := writeInput(t, input)
	out := filepath.Join(t.TempDir(), "out.bmxt")

	_, _, err := Convert(Options{
		InputPath:   in,
		OutputPath:  out,
		BlockWidth:  2,
		BlockHeight: 2,
		Separator:   ',',
		Compression: shared.Zstd,
		CellType:    shared.Int32,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrParse)
}

func TestConvertInt16OutOfRangeAborts(t *testing.T) {
	input := "gene,s1\n" +
		"g1,40000\n"
	in := writeInput(t, input)
	out := filepath.Join(t.TempDir(), "out.bmxt")

	_, _, err := Convert(Options{
		InputPath:   in,
		OutputPath:  out,
		BlockWidth:  2,
		BlockHeight: 2,
		Separator:   ',',
		Compression: shared.Zstd,
		CellType:    shared.Int16,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrParse)
}

func TestConvertRejectsBadBlockDimensions(t *testing.T) {
	in := writeInput(t, "gene,s1\ng1,1\n")
	out := filepath.Join(t.TempDir(), "out.bmxt")

	_, _, err := Convert(Options{
		InputPath:   in,
		OutputPath:  out,
		BlockWidth:  0,
		BlockHeight: 2,
		Separator:   ',',
		Compression: shared.Zstd,
		CellType:    shared.Int16,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrBadArgument)
}

func TestConvertCommentAndBlankLinesSkipped(t *testing.T) {
	input := "# a comment\n" +
		"gene,s1,s2\n" +
		"\n" +
		"g1,1,2\n"
	in := writeInput(t, input)
	out := filepath.Join(t.TempDir(), "out.bmxt")

	header, _, err := Convert(Options{
		InputPath:   in,
		OutputPath:  out,
		BlockWidth:  2,
		BlockHeight: 2,
		Separator:   ',',
		Compression: shared.Zstd,
		CellType:    shared.Int32,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), header.NRow)
}
