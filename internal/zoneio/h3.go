package zoneio

import (
	"fmt"

	"github.com/ctessum/geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/anystubbs/zone-picker/internal/model"
)

// CellZone declares one zone backed by an H3 cell. World coordinates of
// the resulting polygon are lng/lat degrees.
type CellZone struct {
	Cell     string `json:"cell"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Variant  string `json:"variant"`
}

// FromH3Cells expands H3 cell ids into polygon zones using the cell
// boundaries. A zone with no explicit id takes the cell id.
func FromH3Cells(cells []CellZone) ([]*model.Zone, error) {
	zones := make([]*model.Zone, 0, len(cells))
	for i, cz := range cells {
		cell := h3.Cell(h3.IndexFromString(cz.Cell))
		if !cell.IsValid() {
			return nil, fmt.Errorf("cell %d: %q is not a valid h3 index", i, cz.Cell)
		}
		boundary, err := cell.Boundary()
		if err != nil {
			return nil, fmt.Errorf("cell %q boundary: %w", cz.Cell, err)
		}
		ring := make([]geom.Point, 0, len(boundary))
		for _, ll := range boundary {
			ring = append(ring, geom.Point{X: ll.Lng, Y: ll.Lat})
		}
		g, err := model.NewPolygonGeometry(ring)
		if err != nil {
			return nil, fmt.Errorf("cell %q: %w", cz.Cell, err)
		}
		id := cz.ID
		if id == "" {
			id = cz.Cell
		}
		zones = append(zones, &model.Zone{
			ID:       id,
			Name:     cz.Name,
			Category: cz.Category,
			Variant:  cz.Variant,
			Geometry: g,
		})
	}
	return zones, nil
}
