package origin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/originlab/originpro/internal/origin"
)

func TestParseLayerRef(t *testing.T) {
	tests := []struct {
		ref       string
		wantPage  string
		wantLayer string
	}{
		{ref: "[Book1]Sheet1", wantPage: "Book1", wantLayer: "Sheet1"},
		{ref: "[Book1]2", wantPage: "Book1", wantLayer: "2"},
		{ref: "Book1", wantPage: "Book1"},
		{ref: " [Graph1]Layer1 ", wantPage: "Graph1", wantLayer: "Layer1"},
		{ref: "[Book1", wantPage: "Book1"},
		{ref: ""},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			page, layer := origin.ParseLayerRef(tt.ref)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLayer, layer)
		})
	}
}

func TestParsePageKind(t *testing.T) {
	for in, want := range map[string]origin.PageKind{
		"":         origin.KindAny,
		"w":        origin.KindWorkbook,
		"workbook": origin.KindWorkbook,
		"m":        origin.KindMatrix,
		"graph":    origin.KindGraph,
		"i":        origin.KindImage,
		"notes":    origin.KindNotes,
	} {
		got, err := origin.ParsePageKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := origin.ParsePageKind("layout")
	assert.ErrorIs(t, err, origin.ErrInvalidArgument)
}

func TestFindSheet(t *testing.T) {
	conn, host, _ := newConn(t)
	ctx := context.Background()
	book := host.AddWorkbook("Book1", "Sheet1", "Sheet2", "Sheet3")
	book.NumProps["Active"] = 3
	host.Strs["%H"] = "Book1"

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{name: "by name", ref: "[Book1]Sheet2", want: "[Book1]Sheet2"},
		{name: "by 1-based index", ref: "[Book1]1", want: "[Book1]Sheet1"},
		{name: "active sheet of book", ref: "Book1", want: "[Book1]Sheet3"},
		{name: "active window", ref: "", want: "[Book1]Sheet3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := origin.FindSheet(ctx, conn, origin.KindWorkbook, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.String())
			assert.Equal(t, 1, conn.Live())
			require.NoError(t, s.Close())
			assert.Equal(t, 0, conn.Live())
		})
	}
}

func TestFindSheet_NotFound(t *testing.T) {
	conn, host, _ := newConn(t)
	ctx := context.Background()
	host.AddWorkbook("Book1", "Sheet1")
	host.AddMatrixBook("MBook1", "MSheet1")

	tests := []struct {
		name string
		kind origin.PageKind
		ref  string
	}{
		{name: "missing sheet", kind: origin.KindWorkbook, ref: "[Book1]Sheet9"},
		{name: "index out of range", kind: origin.KindWorkbook, ref: "[Book1]4"},
		{name: "missing book", kind: origin.KindWorkbook, ref: "[Book7]Sheet1"},
		{name: "wrong kind", kind: origin.KindWorkbook, ref: "[MBook1]MSheet1"},
		{name: "no active window", kind: origin.KindAny, ref: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := origin.FindSheet(ctx, conn, tt.kind, tt.ref)
			assert.ErrorIs(t, err, origin.ErrNotFound)
			assert.Equal(t, 0, conn.Live())
		})
	}
}

func TestFindWorksheet_RejectsMatrix(t *testing.T) {
	conn, host, _ := newConn(t)
	ctx := context.Background()
	host.AddMatrixBook("MBook1", "MSheet1")

	s, err := origin.FindSheet(ctx, conn, origin.KindMatrix, "[MBook1]MSheet1")
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.IsMatrix())
	_, err = s.Worksheet()
	assert.ErrorIs(t, err, origin.ErrInvalidArgument)
}

func TestFindObject(t *testing.T) {
	conn, host, _ := newConn(t)
	ctx := context.Background()
	host.AddGraph("Graph1", 2)

	obj, err := origin.FindObject(ctx, conn, "[Graph1]2")
	require.NoError(t, err)
	assert.Equal(t, "Layer2", obj.String())
	require.NoError(t, obj.Close())

	page, err := origin.FindObject(ctx, conn, "Graph1")
	require.NoError(t, err)
	assert.Equal(t, "Graph1", page.String())
	require.NoError(t, page.Close())

	_, err = origin.FindObject(ctx, conn, "[Graph1]Layer5")
	assert.ErrorIs(t, err, origin.ErrNotFound)
	assert.Equal(t, 0, conn.Live())
}

func TestListPages(t *testing.T) {
	conn, host, _ := newConn(t)
	ctx := context.Background()
	host.AddWorkbook("Book1", "Sheet1")
	host.AddGraph("Graph1", 1)
	host.AddWorkbook("Book2", "Sheet1")

	pages, err := origin.ListPages(ctx, conn, origin.KindWorkbook)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Book1", pages[0].String())
	assert.Equal(t, "Book2", pages[1].String())
	assert.Equal(t, 2, conn.Live())

	for _, p := range pages {
		require.NoError(t, p.Close())
	}
	assert.Equal(t, 0, conn.Live())

	all, err := origin.ListPages(ctx, conn, origin.KindAny)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, p := range all {
		p.Close()
	}
}

func TestNewBook(t *testing.T) {
	conn, _, _ := newConn(t)
	ctx := context.Background()

	book, err := origin.NewBook(ctx, conn, origin.KindWorkbook, "Raw Data", "")
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, "[Book1]", book.String())
	long, err := book.LongName()
	require.NoError(t, err)
	assert.Equal(t, "Raw Data", long)

	n, err := book.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s, err := book.AddSheet(ctx, "Results", true)
	require.NoError(t, err)
	defer s.Close()
	active, err := book.GetInt("Active")
	require.NoError(t, err)
	assert.Equal(t, 2, active)

	_, err = origin.NewBook(ctx, conn, origin.KindGraph, "", "")
	assert.ErrorIs(t, err, origin.ErrInvalidArgument)
}

func TestLayer_Activate(t *testing.T) {
	conn, host, _ := newConn(t)
	ctx := context.Background()
	book := host.AddWorkbook("Book1", "Sheet1", "Sheet2")
	host.Strs["%H"] = "Graph1"

	s, err := origin.FindSheet(ctx, conn, origin.KindWorkbook, "[Book1]Sheet2")
	require.NoError(t, err)
	defer s.Close()

	last, err := s.Activate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, last)
	assert.Equal(t, float64(2), book.NumProps["Active"])
	assert.Contains(t, host.Commands(), "win -a Book1")
	assert.Equal(t, "[Book1]2", s.LTRange(false))
}
