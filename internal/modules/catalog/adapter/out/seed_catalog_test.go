package out

import (
	"testing"
)

func TestBundledSeedCatalog(t *testing.T) {
	t.Parallel()
	seed, err := NewSeedCatalog()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := len(seed.Missions()); got != 6 {
		t.Fatalf("expected 6 missions, got %d", got)
	}
	if got := len(seed.Recommended()); got != 5 {
		t.Fatalf("expected 5 recommended, got %d", got)
	}
	for _, m := range append(seed.Missions(), seed.Recommended()...) {
		if m.Coordinates == nil || m.CoinReward <= 0 || m.Distance == "" {
			t.Fatalf("incomplete seed mission: %+v", m)
		}
	}
	if u := seed.User(); u.ID != "user-1" || u.CoinBalance != 28246 {
		t.Fatalf("unexpected seed user: %+v", u)
	}

	list := seed.Missions()
	list[0].Title = "changed"
	if seed.Missions()[0].Title == "changed" {
		t.Fatalf("seed must hand out copies")
	}
}

func TestParseSeedCatalogRejectsUnknownCategory(t *testing.T) {
	t.Parallel()
	raw := []byte("missions:\n  - id: x\n    category: karaoke\n")
	if _, err := ParseSeedCatalog(raw); err == nil {
		t.Fatalf("expected category error")
	}
}
