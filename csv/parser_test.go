package csv

import (
	"testing"

	"github.com/biomxt/biomxt/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountFieldsSimple(t *testing.T) {
	n, err := CountFields([]byte("a,b,c\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCountFieldsEmptyLine(t *testing.T) {
	n, err := CountFields([]byte("\r\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCountFieldsUnclosedQuote(t *testing.T) {
	_, err := CountFields([]byte(`a,"b,c`+"\n"), ',')
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrParse)
}

func TestParseFieldsQuotedEscape(t *testing.T) {
	fields := make([][]byte, 3)
	n, err := ParseFields([]byte(`a,"say ""hi""",c`+"\n"), ',', fields)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	assert.Equal(t, "a", string(fields[0]))
	assert.Equal(t, `say "hi"`, string(fields[1]))
	assert.Equal(t, "c", string(fields[2]))
}

func TestParseFieldsTabSeparator(t *testing.T) {
	fields := make([][]byte, 2)
	n, err := ParseFields([]byte("x\ty\n"), '\t', fields)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	assert.Equal(t, "x", string(fields[0]))
	assert.Equal(t, "y", string(fields[1]))
}

func TestParseFieldsTooManyFields(t *testing.T) {
	fields := make([][]byte, 3)
	_, err := ParseFields([]byte("a,b,c,d\n"), ',', fields)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrParse)
}

func TestParseFieldsExactFit(t *testing.T) {
	fields := make([][]byte, 3)
	n, err := ParseFields([]byte("a,b,c\n"), ',', fields)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestParseFieldsReusesBuffer(t *testing.T) {
	fields := make([][]byte, 2)
	_, err := ParseFields([]byte("aaaa,bbbb\n"), ',', fields)
	require.NoError(t, err)
	n, err := ParseFields([]byte("x,y\n"), ',', fields)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	assert.Equal(t, "x", string(fields[0]))
	assert.Equal(t, "y", string(fields[1]))
}

func TestTrimEOL(t *testing.T) {
	assert.Equal(t, 3, TrimEOL([]byte("abc\r\n")))
	assert.Equal(t, 3, TrimEOL([]byte("abc\n")))
	assert.Equal(t, 3, TrimEOL([]byte("abc")))
	assert.Equal(t, 0, TrimEOL([]byte("\n")))
}
