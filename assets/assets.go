package assets

import (
	_ "embed"
	"encoding/json"
	"log"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// NamedColor is one canonical colour name and its representative sRGB value.
type NamedColor struct {
	Name  string
	Color colorful.Color
}

type namedColorData struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}
type colorNamesData struct {
	Colors []namedColorData `json:"colors"`
}

//go:embed colornames.json
var colorNamesJSON []byte

// ColorNames is the ordered table of the 39 colour names used by the w2c
// classification matrices. "dark purple" appears twice and magenta equals
// fuchsia; both are kept as published.
var ColorNames []NamedColor

var byName map[string]colorful.Color

func init() {
	var j colorNamesData
	if err := json.Unmarshal(colorNamesJSON, &j); err != nil {
		log.Fatal(err)
	}
	ColorNames = make([]NamedColor, 0, len(j.Colors))
	byName = make(map[string]colorful.Color)
	for _, c := range j.Colors {
		col, err := colorful.Hex(c.Hex)
		if err != nil {
			log.Fatalf("color %q: %v", c.Name, err)
		}
		ColorNames = append(ColorNames, NamedColor{Name: c.Name, Color: col})
		byName[strings.ToLower(c.Name)] = col
	}
}

// Lookup returns the representative colour for a name, case-insensitively.
func Lookup(name string) (colorful.Color, bool) {
	c, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Names returns the table's names in order, duplicates included.
func Names() []string {
	names := make([]string, len(ColorNames))
	for i, c := range ColorNames {
		names[i] = c.Name
	}
	return names
}
