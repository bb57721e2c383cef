package in

import (
	"fmt"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"bnkchallenge/internal/modules/catalog/dto"
)

const fenceSegments = 32

// MissionsGeoJSON renders each mission with coordinates as a target point plus
// a polygon approximating its geofence. Missions without coordinates are skipped.
func MissionsGeoJSON(missions []dto.MissionOutput, radiusMeters float64) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, m := range missions {
		if m.Lat == nil || m.Lng == nil {
			continue
		}
		center := orb.Point{*m.Lng, *m.Lat}

		point := geojson.NewFeature(center)
		point.Properties["id"] = m.ID
		point.Properties["title"] = m.Title
		point.Properties["category"] = m.Category
		point.Properties["coin_reward"] = m.CoinReward
		point.Properties["kind"] = "target"
		fc.Append(point)

		fence := geojson.NewFeature(fenceRing(center, radiusMeters))
		fence.Properties["id"] = m.ID
		fence.Properties["kind"] = "geofence"
		fence.Properties["radius_m"] = radiusMeters
		fc.Append(fence)
	}
	out, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return out, nil
}

func fenceRing(center orb.Point, radiusMeters float64) orb.Polygon {
	ring := make(orb.Ring, 0, fenceSegments+1)
	for i := 0; i < fenceSegments; i++ {
		ring = append(ring, orbgeo.PointAtBearingAndDistance(center, float64(i)*360/fenceSegments, radiusMeters))
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}
