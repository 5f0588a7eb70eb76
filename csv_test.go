package sidekick

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type csvRecord struct {
	Date   string `csv:"Date"`
	Amount string `csv:"Amount"`
	Note   string `csv:"Note"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDecodeCSV(t *testing.T) {
	path := writeFile(t, "export.csv", "\ufeffDatum;Bedrag; \n29-12-2023;43,17;first\n30-12-2023;1,00;second\n")

	rename := func(h []string) []string {
		return []string{"Date", "Amount", "Note"}
	}
	var got []csvRecord
	require.NoError(t, DecodeCSV(path, ';', rename, &got))
	assert.Equal(t, []csvRecord{
		{"29-12-2023", "43,17", "first"},
		{"30-12-2023", "1,00", "second"},
	}, got)

	header, err := ReadHeader(path, ';')
	require.NoError(t, err)
	assert.Equal(t, []string{"Datum", "Bedrag", ""}, header, "BOM and spaces are dropped")
}

func TestDecodeCSV_Missing(t *testing.T) {
	var got []csvRecord
	err := DecodeCSV(filepath.Join(t.TempDir(), "missing.csv"), ',', nil, &got)
	assert.Error(t, err)

	_, err = ReadHeader(writeFile(t, "empty.csv", ""), ',')
	assert.True(t, err != nil && strings.Contains(err.Error(), "reading header"))
}
