package strategy

import (
	"github.com/ctessum/geom"

	"github.com/anystubbs/zone-picker/internal/model"
	"github.com/anystubbs/zone-picker/internal/provider"
)

// degenerateLassoRadiusPx sizes the box synthesized when a lasso drag
// completes without ever growing, so a zero-movement drag still yields
// a usable area.
const degenerateLassoRadiusPx = 6.0

type lasso struct {
	prov provider.RenderingProvider
}

func (l *lasso) Mode() model.DragMode { return model.DragLasso }

func (l *lasso) Create(start geom.Point) (*model.SelectionShape, error) {
	return l.prov.CreateSelectionShape(model.DragLasso, start)
}

func (l *lasso) Update(s *model.SelectionShape, current, start geom.Point) {
	l.prov.UpdateSelectionShape(s, current, start)
}

func (l *lasso) ApplyStyle(s *model.SelectionShape, modifierHeld bool) {
	l.prov.ApplySelectionStyle(s, lassoStyle(modifierHeld))
}

// Complete seals the lasso into a closed ring by appending the start
// point. A shape that never grew past its root is replaced with a small
// box around the start.
func (l *lasso) Complete(s *model.SelectionShape, start geom.Point) {
	if len(s.Points) <= 1 {
		r := degenerateLassoRadiusPx
		s.Points = []geom.Point{
			{X: start.X - r, Y: start.Y - r},
			{X: start.X + r, Y: start.Y - r},
			{X: start.X + r, Y: start.Y + r},
			{X: start.X - r, Y: start.Y + r},
			{X: start.X - r, Y: start.Y - r},
		}
	} else {
		s.Points = append(s.Points, s.Points[0])
	}
	s.Closed = true
	l.prov.CompleteSelectionShape(s, start)
}

func (l *lasso) Test(zoneID string, s *model.SelectionShape) bool {
	return testShape(l.prov, zoneID, s)
}

func lassoStyle(modifierHeld bool) model.SelectionStyle {
	return model.SelectionStyle{
		StrokeWidth: 3,
		Dashed:      true,
		Color:       strokeColor(modifierHeld),
	}
}

func strokeColor(modifierHeld bool) string {
	if modifierHeld {
		return "#d94141" // deselecting
	}
	return "#3a6fd8"
}
