package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbooks/quillbooks/internal/encoding"
)

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestNewUTF8Reader_PlainUTF8PassesThrough(t *testing.T) {
	r, err := encoding.NewUTF8Reader(strings.NewReader("date,description,amount\n"))

	require.NoError(t, err)
	assert.Equal(t, "date,description,amount\n", readAll(t, r))
}

func TestNewUTF8Reader_StripsUTF8BOM(t *testing.T) {
	r, err := encoding.NewUTF8Reader(strings.NewReader("\ufeffdate\n"))

	require.NoError(t, err)
	assert.Equal(t, "date\n", readAll(t, r))
}

func TestNewUTF8Reader_DecodesUTF16LE(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, c := range "date\n" {
		buf.WriteByte(byte(c))
		buf.WriteByte(0)
	}

	r, err := encoding.NewUTF8Reader(&buf)

	require.NoError(t, err)
	assert.Equal(t, "date\n", readAll(t, r))
}

func TestNewUTF8Reader_DecodesWindows1252(t *testing.T) {
	// "Caf\xe9" is "Café" in Windows-1252 and invalid UTF-8.
	input := []byte("date,description,amount\n2025-03-10,Caf\xe9 du Parc,12.50\n")
	require.False(t, utf8.Valid(input))

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))

	require.NoError(t, err)
	out := readAll(t, r)
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "Café du Parc")
}
