package origin

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a LabTalk color code. RGB colors carry the 0x01000000 flag;
// smaller values are palette indexes.
type Color int

const (
	NoColor Color = 0
	rgbFlag Color = 0x01000000
)

// RGB encodes an RGB triple.
func RGB(r, g, b uint8) Color {
	return rgbFlag | Color(r) | Color(g)<<8 | Color(b)<<16
}

// Hex parses "#rgb" or "#rrggbb".
func Hex(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return NoColor, fmt.Errorf("%w: color %q", ErrInvalidArgument, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return NoColor, fmt.Errorf("%w: color %q", ErrInvalidArgument, s)
	}
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// Named asks Origin for the code of a named color such as "Red".
func Named(host Host, name string) (Color, error) {
	v, err := host.Evaluate(fmt.Sprintf("color(%s)", name))
	if err != nil {
		return NoColor, err
	}
	return Color(CoerceInt(v)), nil
}

// ParseColor accepts "#rgb", "#rrggbb", a decimal code, or a color name
// resolved by the host.
func ParseColor(host Host, s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return Hex(s)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Color(n), nil
	}
	return Named(host, s)
}

// RGB decodes an RGB color. ok is false for palette indexes and NoColor.
func (c Color) RGB() (r, g, b uint8, ok bool) {
	if c&rgbFlag == 0 {
		return 0, 0, 0, false
	}
	return uint8(c), uint8(c >> 8), uint8(c >> 16), true
}

func (c Color) String() string {
	if r, g, b, ok := c.RGB(); ok {
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
	return strconv.Itoa(int(c))
}
