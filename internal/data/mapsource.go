package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/rpgcore/internal/geom"
)

// propDisplay hides a layer, group or object when set to false/no/0.
const propDisplay = "display"

// MapSource is the authored description of a map, loaded from a YAML file.
// Coordinates are in pixels with the origin at the top left corner, the way
// map editors write them.
type MapSource struct {
	Width      int               `yaml:"width"`  // tiles
	Height     int               `yaml:"height"` // tiles
	TileWidth  int               `yaml:"tile_width"`
	TileHeight int               `yaml:"tile_height"`
	Properties map[string]string `yaml:"properties"`

	Layers       []Layer       `yaml:"layers"`
	ObjectGroups []ObjectGroup `yaml:"object_groups"`
}

// Layer is a tile layer. Only its properties matter to the simulation.
type Layer struct {
	Name       string            `yaml:"name"`
	Properties map[string]string `yaml:"properties"`
	Tiles      [][]int           `yaml:"tiles,flow"`
}

type ObjectGroup struct {
	Name       string            `yaml:"name"`
	Properties map[string]string `yaml:"properties"`
	Objects    []Object          `yaml:"objects"`
}

// Object is a rectangle, polygon or polyline placed on the map. Polygon
// and polyline points are relative to X, Y.
type Object struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	X          float64           `yaml:"x"`
	Y          float64           `yaml:"y"`
	Width      float64           `yaml:"width"`
	Height     float64           `yaml:"height"`
	Polygon    []Point           `yaml:"polygon,flow"`
	Polyline   []Point           `yaml:"polyline,flow"`
	Properties map[string]string `yaml:"properties"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// LoadMapSource reads and validates a map file.
func LoadMapSource(path string) (*MapSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	src, err := ParseMapSource(raw)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	return src, nil
}

// ParseMapSource decodes a map from YAML.
func ParseMapSource(raw []byte) (*MapSource, error) {
	var src MapSource
	if err := yaml.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	if src.Width <= 0 || src.Height <= 0 {
		return nil, fmt.Errorf("invalid map size %dx%d", src.Width, src.Height)
	}
	if src.TileWidth <= 0 {
		src.TileWidth = 32
	}
	if src.TileHeight <= 0 {
		src.TileHeight = 32
	}
	return &src, nil
}

// PixelWidth returns the map width in pixels.
func (m *MapSource) PixelWidth() float64 { return float64(m.Width * m.TileWidth) }

// PixelHeight returns the map height in pixels.
func (m *MapSource) PixelHeight() float64 { return float64(m.Height * m.TileHeight) }

// Bounds converts the object rectangle into world coordinates, where y
// grows upwards.
func (m *MapSource) Bounds(o *Object) geom.Rect {
	return geom.Rect{X: o.X, Y: m.PixelHeight() - o.Y - o.Height, W: o.Width, H: o.Height}
}

// IsPath reports whether o is a polygon or polyline.
func (o *Object) IsPath() bool { return len(o.Polygon) > 0 || len(o.Polyline) > 0 }

// Path converts a polygon or polyline object into world coordinates. A
// polygon is closed by repeating its first point.
func (m *MapSource) Path(o *Object) (*geom.Polygon, error) {
	pts, loop := o.Polyline, false
	if len(o.Polygon) > 0 {
		pts, loop = o.Polygon, true
	}
	n := len(pts)
	if loop {
		n++
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	top := m.PixelHeight() - o.Y
	for i, p := range pts {
		xs[i] = o.X + p.X
		ys[i] = top - p.Y
	}
	if loop {
		xs[n-1], ys[n-1] = xs[0], ys[0]
	}
	return geom.NewPolygon(o.Name, xs, ys, loop)
}

// Hidden reports whether a property bag switches its owner off with
// display=false (also "no" or "0"). Keys are compared case-insensitively.
func Hidden(props map[string]string) bool {
	for k, v := range props {
		if !strings.EqualFold(strings.TrimSpace(k), propDisplay) {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			return false
		}
		switch v[0] {
		case 'f', 'F', 'n', 'N', '0':
			return true
		}
		return false
	}
	return false
}
