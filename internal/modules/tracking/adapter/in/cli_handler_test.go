package in

import (
	"testing"

	catalogdto "bnkchallenge/internal/modules/catalog/dto"
)

func TestMissionFromCatalog(t *testing.T) {
	t.Parallel()
	lat, lng := 35.0975, 129.0108
	got := MissionFromCatalog(catalogdto.MissionOutput{ID: "mission-7", Title: "감천문화마을 탐방", CoinReward: 120, Lat: &lat, Lng: &lng, Distance: "15km"})
	if got.ID != "mission-7" || got.CoinReward != 120 || got.Lat == nil || *got.Lat != lat || *got.Lng != lng {
		t.Fatalf("unexpected mission: %+v", got)
	}
	if noCoords := MissionFromCatalog(catalogdto.MissionOutput{ID: "m"}); noCoords.Lat != nil || noCoords.Lng != nil {
		t.Fatalf("missing coordinates must stay nil: %+v", noCoords)
	}
}
