package origin

import (
	"context"
	"fmt"
)

// framesLastOption tells Origin the frame dimension is the last one
// (rows, cols, frames) instead of the first.
const framesLastOption = 1

// MediaType is the kind of content held by an image window.
type MediaType int

const (
	MediaSingle     MediaType = 1
	MediaMultiFrame MediaType = 2
	MediaVideo      MediaType = 3
)

// Image is an image window.
type Image struct {
	*Page
	image ImageHandle
}

func newImage(ctx context.Context, conn *Connection, h PageHandle) (*Image, error) {
	ih, ok := h.(ImageHandle)
	if !ok || isNil(ih) {
		return nil, ErrInvalidHandle
	}
	page, err := newPage(ctx, conn, ih)
	if err != nil {
		return nil, err
	}
	return &Image{Page: page, image: ih}, nil
}

// SetData replaces the image data with a flattened typed slice. framesLast
// reports whether data is laid out as rows, cols, frames. Setup must have
// been called first.
func (im *Image) SetData(data any, framesLast bool) error {
	values, df, err := ToAnySlice(data)
	if err != nil {
		return err
	}
	opts := 0
	if framesLast {
		opts = framesLastOption
	}
	ok, err := im.image.SetData(values, df, opts, -1)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: image set data", ErrHost)
	}
	return nil
}

// Data returns all image data as a typed slice.
func (im *Image) Data() (any, error) {
	return im.FrameData(-1)
}

// FrameData returns one frame of a multi-frame image as a typed slice.
func (im *Image) FrameData(frame int) (any, error) {
	values, df, err := im.image.Data(frame)
	if err != nil {
		return nil, err
	}
	return MakeSlice(values, df)
}

// SetFrameData writes one frame. The data must match the image size. The
// host's success flag is returned as-is.
func (im *Image) SetFrameData(data any, frame int) (bool, error) {
	values, df, err := ToAnySlice(data)
	if err != nil {
		return false, err
	}
	return im.image.SetData(values, df, 0, frame)
}

// FromFile loads an image file, or an image stack when path has a wildcard,
// and reports whether something was loaded.
func (im *Image) FromFile(path string) (bool, error) {
	if err := im.exec(fmt.Sprintf("img.Load(%s)", quotePath(path))); err != nil {
		return false, err
	}
	w, err := im.GetInt("Width")
	if err != nil {
		return false, err
	}
	return w > 0, nil
}

// RGBToGray converts the image to grayscale.
func (im *Image) RGBToGray() error {
	return im.exec("cvGray")
}

// Split splits a color image into RGB channels.
func (im *Image) Split() error {
	return im.exec("cvSplit")
}

// Merge merges an image of 3 or 4 frames into a single image.
func (im *Image) Merge() error {
	return im.exec("cvMerge")
}

// Layer returns the graph layer holding the image.
func (im *Image) Layer(ctx context.Context) (*GraphLayer, error) {
	h, err := im.image.Layer()
	if err != nil {
		return nil, err
	}
	layer, err := newLayer(ctx, im.conn, h)
	if err != nil {
		if !isNil(h) {
			h.Release()
		}
		return nil, err
	}
	return &GraphLayer{Layer: layer}, nil
}

// Setup initializes the image, wiping existing data. channelType 0 is
// float64, 1 float32, 8 uint16; anything else is uint8.
func (im *Image) Setup(channels int, multiframe bool, channelType int) (bool, error) {
	r, err := im.MethodFloat("Setup", fmt.Sprintf("%d,%d,%d", channels, boolInt(multiframe), channelType))
	if err != nil {
		return false, err
	}
	return r == 1, nil
}

// Size returns the width and height in pixels.
func (im *Image) Size() (width, height int, err error) {
	if width, err = im.GetInt("Width"); err != nil {
		return 0, 0, err
	}
	if height, err = im.GetInt("Height"); err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

func (im *Image) Channels() (int, error) {
	return im.GetInt("Channels")
}

// Frames returns the number of frames, 1 for a single image.
func (im *Image) Frames() (int, error) {
	return im.GetInt("Frames")
}

func (im *Image) MediaType() (MediaType, error) {
	v, err := im.GetInt("Media")
	return MediaType(v), err
}
