package strategy

import (
	"github.com/ctessum/geom"

	"github.com/anystubbs/zone-picker/internal/model"
	"github.com/anystubbs/zone-picker/internal/provider"
)

type path struct {
	prov provider.RenderingProvider
}

func (p *path) Mode() model.DragMode { return model.DragPath }

func (p *path) Create(start geom.Point) (*model.SelectionShape, error) {
	return p.prov.CreateSelectionShape(model.DragPath, start)
}

func (p *path) Update(s *model.SelectionShape, current, start geom.Point) {
	p.prov.UpdateSelectionShape(s, current, start)
}

func (p *path) ApplyStyle(s *model.SelectionShape, modifierHeld bool) {
	p.prov.ApplySelectionStyle(s, pathStyle(modifierHeld))
}

// Complete leaves the polyline open; a path never gains a closing
// segment.
func (p *path) Complete(s *model.SelectionShape, start geom.Point) {
	p.prov.CompleteSelectionShape(s, start)
}

func (p *path) Test(zoneID string, s *model.SelectionShape) bool {
	return testShape(p.prov, zoneID, s)
}

func pathStyle(modifierHeld bool) model.SelectionStyle {
	return model.SelectionStyle{
		StrokeWidth: 1.5,
		Dashed:      false,
		Color:       strokeColor(modifierHeld),
	}
}
