// Package cities loads the static city-coordinate directory that seeds
// virtual-stop synthesis.
package cities

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/taigatrans/routegrid/ident"
	"github.com/taigatrans/routegrid/model"
)

type entry struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Directory maps city display names to coordinates. Lookups match on the
// normalized name so spelling variants of the same city agree.
type Directory struct {
	coords  map[string]model.Coord // display name -> coord
	byNorm  map[string]string      // normalized -> display name
	ordered []string               // display names, sorted
}

// LoadFile reads a YAML directory of `name: {lat, lon}` entries.
func LoadFile(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read city directory: %w", err)
	}
	var raw map[string]entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse city directory: %w", err)
	}
	return New(rawToCoords(raw)), nil
}

func rawToCoords(raw map[string]entry) map[string]model.Coord {
	out := make(map[string]model.Coord, len(raw))
	for name, e := range raw {
		out[name] = model.Coord{Lat: e.Lat, Lon: e.Lon}
	}
	return out
}

// New builds a directory from an in-memory map, mostly for tests.
func New(coords map[string]model.Coord) *Directory {
	d := &Directory{
		coords: coords,
		byNorm: make(map[string]string, len(coords)),
	}
	for name := range coords {
		d.byNorm[ident.NormalizeCity(name)] = name
		d.ordered = append(d.ordered, name)
	}
	sort.Strings(d.ordered)
	return d
}

// Cities returns all display names in a deterministic order.
func (d *Directory) Cities() []string { return d.ordered }

// Coord returns the coordinates for a display name.
func (d *Directory) Coord(name string) (model.Coord, bool) {
	c, ok := d.coords[name]
	return c, ok
}

// LookupNormalized resolves a city by its normalized name.
func (d *Directory) LookupNormalized(norm string) (string, model.Coord, bool) {
	name, ok := d.byNorm[norm]
	if !ok {
		return "", model.Coord{}, false
	}
	return name, d.coords[name], true
}

// Len reports the number of directory entries.
func (d *Directory) Len() int { return len(d.ordered) }
