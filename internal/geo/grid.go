// Package geo tiles a search area into a grid of map-search anchor points.
// Dense metros return at most ~120 listings per query, so wide areas are
// covered by issuing the query once per cell.
package geo

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

const (
	// degrees of latitude per kilometer is constant; longitude shrinks
	// with cos(lat).
	kmPerDegreeLat = 110.574
	kmPerDegreeLng = 111.320

	defaultZoom = 15
)

// Cell is one grid anchor point.
type Cell struct {
	Lat float64
	Lng float64
}

// LL formats the cell as a map-search ll parameter, e.g. "@40.7128,-74.0060,15z".
func (c Cell) LL(zoom int) string {
	if zoom <= 0 {
		zoom = defaultZoom
	}
	return fmt.Sprintf("@%.6f,%.6f,%dz", c.Lat, c.Lng, zoom)
}

// Grid tiles the bounding box into cells spaced stepKm kilometers apart.
// A box smaller than one step still yields its center point.
func Grid(bounds *geom.Bounds, stepKm float64) ([]Cell, error) {
	if bounds == nil {
		return nil, eris.New("geo: nil bounds")
	}
	if stepKm <= 0 {
		return nil, eris.Errorf("geo: invalid step %f km", stepKm)
	}

	minLng, minLat := bounds.Min(0), bounds.Min(1)
	maxLng, maxLat := bounds.Max(0), bounds.Max(1)
	if minLat > maxLat || minLng > maxLng {
		return nil, eris.New("geo: inverted bounds")
	}
	if minLat < -90 || maxLat > 90 || minLng < -180 || maxLng > 180 {
		return nil, eris.New("geo: bounds outside WGS84 range")
	}

	latStep := stepKm / kmPerDegreeLat
	midLat := (minLat + maxLat) / 2
	lngStep := stepKm / (kmPerDegreeLng * math.Cos(midLat*math.Pi/180))

	rows := int(math.Ceil((maxLat - minLat) / latStep))
	cols := int(math.Ceil((maxLng - minLng) / lngStep))
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}

	cells := make([]Cell, 0, rows*cols)
	for i := 0; i < rows; i++ {
		lat := minLat + (float64(i)+0.5)*(maxLat-minLat)/float64(rows)
		for j := 0; j < cols; j++ {
			lng := minLng + (float64(j)+0.5)*(maxLng-minLng)/float64(cols)
			cells = append(cells, Cell{Lat: lat, Lng: lng})
		}
	}
	return cells, nil
}

// BoundsAround returns a bounding box centered on a point with the given
// radius in kilometers.
func BoundsAround(lat, lng, radiusKm float64) *geom.Bounds {
	dLat := radiusKm / kmPerDegreeLat
	dLng := radiusKm / (kmPerDegreeLng * math.Cos(lat*math.Pi/180))
	b := geom.NewBounds(geom.XY)
	b.Set(lng-dLng, lat-dLat, lng+dLng, lat+dLat)
	return b
}
