package theme

import (
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

type colorFormat int

const (
	formatHex colorFormat = iota
	formatRGB
	formatHSL
)

// cssColor is a parsed CSS color. Alpha is kept apart from the RGB value and
// format records the notation so output can be written back the same way.
type cssColor struct {
	colorful.Color
	alpha  float64
	format colorFormat
}

func parseColor(value string) (cssColor, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case strings.HasPrefix(v, "#"):
		c, err := colorful.Hex(v)
		return cssColor{Color: c, alpha: 1, format: formatHex}, err == nil
	case strings.HasPrefix(v, "rgb"):
		return parseRGB(v)
	case strings.HasPrefix(v, "hsl"):
		return parseHSL(v)
	}
	if rgba, ok := colornames.Map[v]; ok {
		c, ok := colorful.MakeColor(rgba)
		return cssColor{Color: c, alpha: 1, format: formatHex}, ok
	}
	return cssColor{}, false
}

// functionArgs splits "name(a, b, c)" or "namea(a b c d)" into its arguments.
// Commas and whitespace both separate arguments.
func functionArgs(v, name string) ([]string, bool) {
	rest := strings.TrimPrefix(v, name)
	rest = strings.TrimPrefix(rest, "a")
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return nil, false
	}
	args := strings.FieldsFunc(rest[1:len(rest)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(args) != 3 && len(args) != 4 {
		return nil, false
	}
	return args, true
}

// unit parses a number or percentage. Percentages are returned as a
// fraction of scale.
func unit(arg string, scale float64) (float64, bool) {
	if pct, ok := strings.CutSuffix(arg, "%"); ok {
		f, err := strconv.ParseFloat(pct, 64)
		return f / 100 * scale, err == nil
	}
	f, err := strconv.ParseFloat(arg, 64)
	return f, err == nil
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}

func parseAlpha(args []string) (float64, bool) {
	if len(args) < 4 {
		return 1, true
	}
	a, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return 0, false
	}
	if a < 0 || a > 1 {
		a = 1
	}
	return a, true
}

func parseRGB(v string) (cssColor, bool) {
	args, ok := functionArgs(v, "rgb")
	if !ok {
		return cssColor{}, false
	}
	var ch [3]float64
	for i := range ch {
		n, ok := unit(args[i], 255)
		if !ok {
			return cssColor{}, false
		}
		ch[i] = clamp(n, 0, 255) / 255
	}
	alpha, ok := parseAlpha(args)
	if !ok {
		return cssColor{}, false
	}
	return cssColor{
		Color:  colorful.Color{R: ch[0], G: ch[1], B: ch[2]},
		alpha:  alpha,
		format: formatRGB,
	}, true
}

// saturation and lightness accept percentages or fractions; a bare number
// above 1 is read as a percentage.
func hslFraction(arg string) (float64, bool) {
	n, ok := unit(arg, 1)
	if !ok {
		return 0, false
	}
	if !strings.HasSuffix(arg, "%") && n > 1 {
		n /= 100
	}
	return clamp(n, 0, 1), true
}

func parseHSL(v string) (cssColor, bool) {
	args, ok := functionArgs(v, "hsl")
	if !ok {
		return cssColor{}, false
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return cssColor{}, false
	}
	s, ok := hslFraction(args[1])
	if !ok {
		return cssColor{}, false
	}
	l, ok := hslFraction(args[2])
	if !ok {
		return cssColor{}, false
	}
	alpha, ok := parseAlpha(args)
	if !ok {
		return cssColor{}, false
	}
	return cssColor{
		Color:  colorful.Hsl(clamp(h, 0, 360), s, l),
		alpha:  alpha,
		format: formatHSL,
	}, true
}

func formatAlpha(a float64) string {
	return strconv.FormatFloat(math.Round(a*100)/100, 'f', -1, 64)
}

func round(f float64) string {
	return strconv.Itoa(int(math.Round(f)))
}

// String writes c in the notation it was parsed from. Translucent colors
// always use the functional notation with an alpha argument.
func (c cssColor) String() string {
	switch {
	case c.format == formatHSL:
		h, s, l := c.Hsl()
		hsl := round(h) + ", " + round(s*100) + "%, " + round(l*100) + "%"
		if c.alpha < 1 {
			return "hsla(" + hsl + ", " + formatAlpha(c.alpha) + ")"
		}
		return "hsl(" + hsl + ")"
	case c.format == formatRGB || c.alpha < 1:
		rgb := round(c.R*255) + ", " + round(c.G*255) + ", " + round(c.B*255)
		if c.alpha < 1 {
			return "rgba(" + rgb + ", " + formatAlpha(c.alpha) + ")"
		}
		return "rgb(" + rgb + ")"
	default:
		return c.Hex()
	}
}

// Lighten raises the HSL lightness of a CSS color by amount percentage
// points. Hex and named colors come back as #rrggbb; rgb() and hsl() colors
// keep their notation and alpha. It reports false for values it cannot
// parse.
func Lighten(value string, amount float64) (string, bool) {
	c, ok := parseColor(value)
	if !ok {
		return "", false
	}
	h, s, l := c.Hsl()
	l += amount / 100
	if l > 1 {
		l = 1
	}
	c.Color = colorful.Hsl(h, s, l).Clamped()
	return c.String(), true
}
