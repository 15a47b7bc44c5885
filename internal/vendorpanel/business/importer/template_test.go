package importer

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestTemplate(t *testing.T) {
	data, err := Template()
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Product Handle", rows[0][0])
	assert.Contains(t, rows[0], "Variant Sku")
	assert.Len(t, rows[1], len(rows[0]))
}

func TestDecodeSource(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String("Цена")
	require.NoError(t, err)

	for _, enc := range []string{"windows-1251", "CP1251"} {
		out, err := io.ReadAll(decodeSource(strings.NewReader(encoded), enc))
		require.NoError(t, err)
		assert.Equal(t, "Цена", string(out), enc)
	}

	out, err := io.ReadAll(decodeSource(strings.NewReader("plain"), ""))
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))
}
