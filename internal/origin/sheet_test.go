package origin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/originlab/originpro/internal/origin"
)

func findWorksheet(t *testing.T, conn *origin.Connection, ref string) *origin.Worksheet {
	t.Helper()
	wks, err := origin.FindWorksheet(context.Background(), conn, ref)
	require.NoError(t, err)
	t.Cleanup(func() { wks.Close() })
	return wks
}

func TestConnectorForFile(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: `C:\data\a.csv`, want: "csv"},
		{path: "b.TXT", want: "csv"},
		{path: "c.dat", want: "csv"},
		{path: "d.xlsx", want: "excel"},
		{path: "e.xls", want: "excel"},
		{path: "f.opju", wantErr: true},
		{path: "noext", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := origin.ConnectorForFile(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, origin.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSheet_FromFile(t *testing.T) {
	tests := []struct {
		name string
		path string
		opt  origin.FileImport
		want []string
	}{
		{
			name: "csv removes connector",
			path: `C:\data\a.csv`,
			want: []string{
				`wbook.dc.add("csv")`,
				`wks.dc.source$="C:\data\a.csv"`,
				`wks.dc.sparklines=0`,
				`wks.dc.import()`,
				`wbook.dc.Remove()`,
			},
		},
		{
			name: "explicit connector kept with selection",
			path: `"C:\data\b.mat"`,
			opt:  origin.FileImport{Connector: "MATLAB", KeepDC: true, Select: "x", Sparklines: true},
			want: []string{
				`wbook.dc.add("MATLAB")`,
				`wks.dc.source$="C:\data\b.mat"`,
				`wks.dc.sparklines=1`,
				`wks.dc.sel$="x"`,
				`wks.dc.import()`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, host, _ := newConn(t)
			host.AddWorkbook("Book1", "Sheet1")
			wks := findWorksheet(t, conn, "[Book1]Sheet1")

			ok, err := wks.FromFile(tt.path, tt.opt)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, host.Commands()[1:])
		})
	}
}

func TestSheet_FromFileUnsupported(t *testing.T) {
	conn, host, _ := newConn(t)
	host.AddWorkbook("Book1", "Sheet1")
	wks := findWorksheet(t, conn, "[Book1]Sheet1")

	_, err := wks.FromFile("project.opju", origin.FileImport{})
	assert.ErrorIs(t, err, origin.ErrInvalidArgument)
	assert.Equal(t, []string{"sec -poc"}, host.Commands())
}

func TestSheet_FromFileReportsHostFailure(t *testing.T) {
	conn, host, _ := newConn(t)
	host.AddWorkbook("Book1", "Sheet1")
	host.ExecResults["wks.dc.import()"] = false
	wks := findWorksheet(t, conn, "[Book1]Sheet1")

	ok, err := wks.FromFile("a.csv", origin.FileImport{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSheet_HasDC(t *testing.T) {
	conn, host, _ := newConn(t)
	ctx := context.Background()
	book := host.AddWorkbook("Book1", "Sheet1", "Sheet2")
	book.StrProps["DC.Type"] = "CSV_Connector"
	book.Sheet(0).NumProps["HasDC"] = 1

	s1 := findWorksheet(t, conn, "[Book1]Sheet1")
	dc, err := s1.HasDC(ctx)
	require.NoError(t, err)
	assert.Equal(t, "csv", dc)

	s2 := findWorksheet(t, conn, "[Book1]Sheet2")
	dc, err = s2.HasDC(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", dc)
}

func TestSheet_SetShape(t *testing.T) {
	conn, host, _ := newConn(t)
	ctx := context.Background()
	book := host.AddWorkbook("Book1", "Sheet1")
	book.Sheet(0).Rows, book.Sheet(0).Cols = 32, 2
	host.AddMatrixBook("MBook1", "MSheet1")

	wks := findWorksheet(t, conn, "[Book1]Sheet1")
	rows, cols, err := wks.SetShape(0, 5)
	require.NoError(t, err)
	assert.Equal(t, 32, rows)
	assert.Equal(t, 5, cols)

	ms, err := origin.FindSheet(ctx, conn, origin.KindMatrix, "MBook1")
	require.NoError(t, err)
	defer ms.Close()

	_, _, err = ms.SetShape(0, 5)
	assert.ErrorIs(t, err, origin.ErrInvalidArgument)

	rows, cols, err = ms.SetShape(3, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	assert.Equal(t, 4, cols)
}

func TestSheet_TabColor(t *testing.T) {
	conn, host, _ := newConn(t)
	host.AddWorkbook("Book1", "Sheet1")
	wks := findWorksheet(t, conn, "[Book1]Sheet1")

	c, err := wks.TabColor()
	require.NoError(t, err)
	assert.Equal(t, origin.NoColor, c)

	require.NoError(t, wks.SetTabColor(origin.RGB(255, 0, 0)))
	c, err = wks.TabColor()
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", c.String())
}

func TestSheet_Book(t *testing.T) {
	conn, host, _ := newConn(t)
	ctx := context.Background()
	host.AddWorkbook("Book1", "Sheet1")
	wks := findWorksheet(t, conn, "[Book1]Sheet1")

	book, err := wks.Book(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[Book1]", book.String())
	assert.Equal(t, 2, conn.Live())
	require.NoError(t, book.Close())
}

func TestWorksheet_Ranges(t *testing.T) {
	conn, host, _ := newConn(t)
	host.AddWorkbook("Book1", "Sheet1")
	wks := findWorksheet(t, conn, "[Book1]Sheet1")

	assert.Equal(t, "[Book1]Sheet1!B", wks.ColRange("B"))
	assert.Equal(t, "[Book1]Sheet1!3", wks.ColRange(origin.ColIndex(2)))
	assert.Equal(t, "[Book1]Sheet1!(A,B)", wks.XYRange("A", "B", "", ""))
	assert.Equal(t, "[Book1]Sheet1!(A,B,C)", wks.XYRange("A", "B", "C", ""))
	assert.Equal(t, "[Book1]Sheet1!(A,B,,D)", wks.XYRange("A", "B", "", "D"))
	assert.Equal(t, "[Book1]Sheet1!(A,B,C)", wks.XYZRange("A", "B", "C"))
}

func TestWorksheet_ColumnData(t *testing.T) {
	conn, host, _ := newConn(t)
	book := host.AddWorkbook("Book1", "Sheet1")
	wks := findWorksheet(t, conn, "[Book1]Sheet1")

	require.NoError(t, wks.SetColumnData(0, []float64{1, 2, 3, 4}, 0))
	require.NoError(t, wks.SetColumnData(1, []string{"a", "b"}, 0))
	require.NoError(t, wks.SetColumnData(2, []uint16{7, 8}, 1))

	got, err := wks.ColumnData(0, 1, -1)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, got)

	text, err := wks.ColumnData(1, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, text)

	ushort, err := wks.ColumnData(2, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 7, 8}, ushort)

	sheet := book.Sheet(0)
	assert.Equal(t, origin.DFUShort, sheet.Formats[2])
	assert.Equal(t, 4, sheet.Rows)
	assert.Equal(t, 3, sheet.Cols)

	err = wks.SetColumnData(3, []bool{true}, 0)
	assert.ErrorIs(t, err, origin.ErrUnsupportedType)

	_, err = wks.ColumnData(9, 0, -1)
	assert.Error(t, err)
}
