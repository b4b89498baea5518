package tabular

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSVComma(t *testing.T) {
	in := "NOMEN,ZONA_NOVAK,NAMA\n30045.0,340960217,BUDI\n\n30046,350960217,SITI\n"
	tbl, err := Read("mc.csv", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"NOMEN", "ZONA_NOVAK", "NAMA"}, tbl.Header)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "30045.0", tbl.Rows[0][0])
}

func TestReadCSVSemicolon(t *testing.T) {
	in := "\xef\xbb\xbfNO_PLGGN;TGL_BAYAR;JML_BAYAR\n1;01-03-2025;\"50,000\"\n"
	tbl, err := Read("coll.CSV", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"NO_PLGGN", "TGL_BAYAR", "JML_BAYAR"}, tbl.Header)
	assert.Equal(t, []string{"1", "01-03-2025", "50,000"}, tbl.Rows[0])
}

func TestReadTXTPipeThenComma(t *testing.T) {
	tbl, err := Read("sbrs.txt", strings.NewReader("cmr_account|SB_Stand\nA1|12\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "12"}, tbl.Rows[0])

	tbl, err = Read("sbrs.txt", strings.NewReader("cmr_account,SB_Stand\nA1,12\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cmr_account", "SB_Stand"}, tbl.Header)
}

func TestReadRaggedRows(t *testing.T) {
	tbl, err := Read("x.csv", strings.NewReader("A,B,C\n1\n1,2,3,4\n"))
	require.NoError(t, err)
	assert.Len(t, tbl.Rows[0], 1)
	assert.Len(t, tbl.Rows[1], 4)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"NOMEN", "SALDO"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"30045", 125000}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	tbl, err := Read("ardebt.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"NOMEN", "SALDO"}, tbl.Header)
	assert.Equal(t, []string{"30045", "125000"}, tbl.Rows[0])
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MB_202503.csv")
	require.NoError(t, os.WriteFile(path, []byte("NOPEL,JUMLAH\n9,100\n"), 0o600))
	tbl, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
}

func TestReadErrors(t *testing.T) {
	_, err := Read("data.json", strings.NewReader("{}"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Read("empty.csv", strings.NewReader("  \n\n"))
	assert.True(t, errors.Is(err, ErrEmptyFile))

	_, err = Read("broken.xlsx", strings.NewReader("not a zip"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"a.csv": FormatCSV, "b.TXT": FormatTXT, "c.xlsx": FormatXLSX, "d.xls": FormatXLS,
	}
	for name, want := range cases {
		got, err := DetectFormat(name)
		if err != nil {
			t.Fatalf("DetectFormat(%q) error: %v", name, err)
		}
		if got != want {
			t.Fatalf("DetectFormat(%q) = %s, want %s", name, got, want)
		}
	}
}
