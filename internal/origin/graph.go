package origin

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// GraphPage is a graph window.
type GraphPage struct {
	*Page
}

func newGraphPage(ctx context.Context, conn *Connection, h PageHandle) (*GraphPage, error) {
	if !isNil(h) && h.Kind() != KindGraph {
		return nil, fmt.Errorf("%w: %s page is not a graph", ErrInvalidHandle, h.Kind())
	}
	page, err := newPage(ctx, conn, h)
	if err != nil {
		return nil, err
	}
	return &GraphPage{Page: page}, nil
}

// Layer returns the i-th (0-based) graph layer.
func (g *GraphPage) Layer(ctx context.Context, i int) (*GraphLayer, error) {
	h, err := g.layer(i)
	if err != nil {
		return nil, err
	}
	layer, err := newLayer(ctx, g.conn, h)
	if err != nil {
		h.Release()
		return nil, err
	}
	return &GraphLayer{Layer: layer}, nil
}

// SaveFig exports the graph to an image file. The format follows the file
// extension; width is in pixels, 0 keeps the page size.
func (g *GraphPage) SaveFig(path string, width int) (bool, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return false, fmt.Errorf("%w: %s has no file extension", ErrInvalidArgument, path)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	cmd := fmt.Sprintf("expGraph type:=%s path:=%s filename:=%s overwrite:=replace",
		ext, quotePath(filepath.Dir(path)), quotePath(base))
	if width > 0 {
		cmd += fmt.Sprintf(" tr1.unit:=2 tr1.width:=%d", width)
	}
	return g.Exec(cmd)
}

// GraphLayer is a layer of a graph or the image holder of an image window.
type GraphLayer struct {
	*Layer
}

// Rescale rescales the axes to show all data.
func (l *GraphLayer) Rescale() error {
	return l.exec("layer -a")
}

// AddPlot plots an XY range into the layer. plotType is the LabTalk plot
// type id, e.g. 200 for line and 201 for scatter.
func (l *GraphLayer) AddPlot(xyRange string, plotType int) (bool, error) {
	return l.host.Execute(fmt.Sprintf("plotxy iy:=%s plot:=%d ogl:=%s", xyRange, plotType, l.LTRange(true)))
}
