package model

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Color is a palette identifier such as "peacock".
type Color string

const (
	ColorTomato    Color = "tomato"
	ColorFlamingo  Color = "flamingo"
	ColorTangerine Color = "tangerine"
	ColorBanana    Color = "banana"
	ColorSage      Color = "sage"
	ColorBasil     Color = "basil"
	ColorPeacock   Color = "peacock"
	ColorBlueberry Color = "blueberry"
	ColorLavender  Color = "lavender"
)

// DefaultColor is used when an imported event carries no usable color.
const DefaultColor = ColorPeacock

// Swatch is one palette entry.
type Swatch struct {
	ID    Color  `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

var palette = []Swatch{
	{ID: ColorTomato, Name: "Tomato", Value: "#D50000"},
	{ID: ColorFlamingo, Name: "Flamingo", Value: "#E67C73"},
	{ID: ColorTangerine, Name: "Tangerine", Value: "#F4511E"},
	{ID: ColorBanana, Name: "Banana", Value: "#F6BF26"},
	{ID: ColorSage, Name: "Sage", Value: "#33B679"},
	{ID: ColorBasil, Name: "Basil", Value: "#0B8043"},
	{ID: ColorPeacock, Name: "Peacock", Value: "#039BE5"},
	{ID: ColorBlueberry, Name: "Blueberry", Value: "#3F51B5"},
	{ID: ColorLavender, Name: "Lavender", Value: "#7986CB"},
}

// Palette returns a copy of the fixed color palette in display order.
func Palette() []Swatch {
	out := make([]Swatch, len(palette))
	copy(out, palette)
	return out
}

// Valid reports whether c is a palette id.
func (c Color) Valid() bool {
	_, ok := c.Swatch()
	return ok
}

// Swatch returns the palette entry for c.
func (c Color) Swatch() (Swatch, bool) {
	for _, s := range palette {
		if s.ID == c {
			return s, true
		}
	}
	return Swatch{}, false
}

// ParseColor resolves a palette id, a display name ("Peacock"), a hex
// value ("#039BE5") or a legacy class id ("bg-[#039BE5]"), ignoring case.
func ParseColor(s string) (Color, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(key, "bg-[") && strings.HasSuffix(key, "]") {
		key = key[len("bg-[") : len(key)-1]
	}
	for _, sw := range palette {
		if key == string(sw.ID) || key == strings.ToLower(sw.Name) || key == strings.ToLower(sw.Value) {
			return sw.ID, nil
		}
	}
	return "", &ValidationError{Field: "color", Reason: "unknown color " + s}
}

// UnmarshalText lets JSON and YAML inputs use any form ParseColor accepts.
func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	return c.UnmarshalText([]byte(value.Value))
}
