// Package zoneio loads zone collections from GeoJSON documents, H3 cell
// catalogs and Redis-stored catalogs. Zones are handed to the selector
// in memory; this package defines no storage format of its own.
package zoneio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ctessum/geom"

	"github.com/anystubbs/zone-picker/internal/model"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string `json:"type"`
	Properties struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Category string `json:"category"`
		Variant  string `json:"variant"`
	} `json:"properties"`
	Geometry struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// FromGeoJSON parses a FeatureCollection of Point and Polygon features
// into zones. Polygon holes are dropped; only the outer ring takes part
// in selection.
func FromGeoJSON(r io.Reader) ([]*model.Zone, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unsupported document type %q", fc.Type)
	}

	zones := make([]*model.Zone, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Properties.ID == "" {
			return nil, fmt.Errorf("feature %d has no id property", i)
		}
		g, err := parseGeometry(f.Geometry.Type, f.Geometry.Coordinates)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", f.Properties.ID, err)
		}
		zones = append(zones, &model.Zone{
			ID:       f.Properties.ID,
			Name:     f.Properties.Name,
			Category: f.Properties.Category,
			Variant:  f.Properties.Variant,
			Geometry: g,
		})
	}
	return zones, nil
}

func parseGeometry(typ string, coords json.RawMessage) (*model.Geometry, error) {
	switch typ {
	case "Point":
		var xy []float64
		if err := json.Unmarshal(coords, &xy); err != nil {
			return nil, fmt.Errorf("parse point coords: %w", err)
		}
		if len(xy) < 2 {
			return nil, errors.New("point coordinate must be [x,y]")
		}
		return model.NewPointGeometry(xy[0], xy[1]), nil

	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(coords, &rings); err != nil {
			return nil, fmt.Errorf("parse polygon coords: %w", err)
		}
		if len(rings) == 0 {
			return nil, errors.New("empty polygon")
		}
		ring := make([]geom.Point, 0, len(rings[0]))
		for _, xy := range rings[0] {
			if len(xy) < 2 {
				return nil, errors.New("coordinate must be [x,y]")
			}
			ring = append(ring, geom.Point{X: xy[0], Y: xy[1]})
		}
		return model.NewPolygonGeometry(ring)

	default:
		return nil, fmt.Errorf("unsupported geometry type %q", typ)
	}
}
