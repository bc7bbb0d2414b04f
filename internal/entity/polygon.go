package entity

import "github.com/l1jgo/rpgcore/internal/geom"

// PolygonObject is a polygon or polyline placed on a map. It can block
// events, react to touches and carry node scripts for walkers.
type PolygonObject struct {
	*geom.Polygon

	Blocking   BlockingBehavior
	Touchable  bool
	Visible    bool
	Properties map[string]string

	handler EventHandler
}

func NewPolygonObject(p *geom.Polygon) *PolygonObject {
	return &PolygonObject{
		Polygon:    p,
		Blocking:   BlockBuildingLow,
		Properties: make(map[string]string),
	}
}

func (p *PolygonObject) EventHandler() EventHandler { return p.handler }

func (p *PolygonObject) SetEventHandler(h EventHandler) { p.handler = h }

func (p *PolygonObject) Dispose() {
	if p.handler != nil {
		p.handler.Dispose()
		p.handler = nil
	}
}
