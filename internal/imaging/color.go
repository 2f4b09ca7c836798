package imaging

import (
	"fmt"
	"image/color"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Transparent is the background value that disables flattening.
const Transparent = "transparent"

// namedColors covers the CSS colour names most often passed as diagram
// backgrounds. Values are "#rrggbb" hex literals.
var namedColors = map[string]string{
	"white":  "#ffffff",
	"black":  "#000000",
	"red":    "#ff0000",
	"green":  "#008000",
	"blue":   "#0000ff",
	"yellow": "#ffff00",
	"orange": "#ffa500",
	"purple": "#800080",
	"pink":   "#ffc0cb",
	"brown":  "#a52a2a",
	"gray":   "#808080",
	"grey":   "#808080",
	"silver": "#c0c0c0",
	"navy":   "#000080",
	"teal":   "#008080",
}

// hexColor matches the "#rgb" and "#rrggbb" literals the renderer accepts.
var hexColor = regexp.MustCompile(`^#([0-9a-f]{3}|[0-9a-f]{6})$`)

// Background is a parsed diagram background colour.
type Background struct {
	// Raw is the value as supplied by the caller, trimmed.
	Raw string

	// Transparent is true for the literal "transparent".
	Transparent bool

	// Known is true when Raw resolved to a concrete colour.
	Known bool

	// Color is the resolved opaque colour; valid only when Known.
	Color color.NRGBA
}

// Hex returns the canonical "#rrggbb" form of a known colour, or Raw otherwise.
func (b Background) Hex() string {
	if !b.Known {
		return b.Raw
	}
	c, _ := colorful.MakeColor(b.Color)
	return c.Hex()
}

// Opaque reports whether screenshots should be flattened onto this colour.
func (b Background) Opaque() bool {
	return b.Known && !b.Transparent
}

// ParseBackground resolves a background colour string.
//
// Empty input yields a zero Background. Unrecognised values are not an error:
// they are returned with Known=false so the renderer can interpret them.
// Malformed hex literals ("#12", "#12345", "#zzzzzz") are an error.
func ParseBackground(s string) (Background, error) {
	raw := strings.TrimSpace(s)
	bg := Background{Raw: raw}
	if raw == "" {
		return bg, nil
	}

	lower := strings.ToLower(raw)
	if lower == Transparent {
		bg.Transparent = true
		return bg, nil
	}

	hex := lower
	if named, ok := namedColors[lower]; ok {
		hex = named
	}
	if !strings.HasPrefix(hex, "#") {
		return bg, nil
	}

	if !hexColor.MatchString(hex) {
		return bg, fmt.Errorf("invalid background colour %q: want #rgb or #rrggbb", raw)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return bg, fmt.Errorf("invalid background colour %q: %w", raw, err)
	}
	r, g, b := c.RGB255()
	bg.Known = true
	bg.Color = color.NRGBA{R: r, G: g, B: b, A: 255}
	return bg, nil
}

// NormalizeBackground returns the form of s handed to the renderer: canonical
// hex for recognised colours, s unchanged otherwise.
func NormalizeBackground(s string) string {
	bg, err := ParseBackground(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	if bg.Transparent {
		return Transparent
	}
	return bg.Hex()
}
