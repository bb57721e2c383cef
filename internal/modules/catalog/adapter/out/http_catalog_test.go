package out

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bnkchallenge/internal/modules/catalog/domain"
	apperrors "bnkchallenge/internal/platform/errors"
)

func TestHTTPCatalogRequests(t *testing.T) {
	t.Parallel()
	var (
		mu   sync.Mutex
		seen []string
	)
	record := func(q string) {
		mu.Lock()
		seen = append(seen, q)
		mu.Unlock()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/missions", func(w http.ResponseWriter, r *http.Request) {
		record(r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"id": "mission-3", "title": "야구", "distance": "4.8km", "coinReward": 200,
			"category": "culture", "coordinates": map[string]float64{"lat": 35.19, "lng": 129.06},
			"participationStatus": "in_progress", "finalScore": 0.7,
		}})
	})
	mux.HandleFunc("GET /api/missions/ai-recommend", func(w http.ResponseWriter, r *http.Request) {
		record(r.URL.RawQuery)
		_, _ = w.Write([]byte(`[{"id":"mission-1","coinReward":100,"category":"tourist"}]`))
	})
	mux.HandleFunc("POST /api/missions/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"isLiked":true}`))
	})
	mux.HandleFunc("POST /api/missions/{id}/participate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"ok ` + r.PathValue("id") + `"}`))
	})
	mux.HandleFunc("GET /api/user/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"user-1","name":"채수원","coinBalance":28246}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewHTTPCatalog(srv.URL+"/", time.Second)
	ctx := context.Background()

	missions, err := c.ListMissions(ctx, domain.CategoryCulture, domain.SortDistance)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(missions) != 1 || missions[0].Coordinates == nil || missions[0].Coordinates.Lat != 35.19 {
		t.Fatalf("unexpected missions: %+v", missions)
	}
	if missions[0].ParticipationStatus != domain.ParticipationInProgress || *missions[0].FinalScore != 0.7 {
		t.Fatalf("unexpected mission fields: %+v", missions[0])
	}
	if _, err := c.ListMissions(ctx, domain.CategoryAll, domain.SortNone); err != nil {
		t.Fatalf("list all: %v", err)
	}
	if _, err := c.Recommended(ctx, "user-1"); err != nil {
		t.Fatalf("recommend: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if seen[0] != "category=culture&sort=distance" || seen[1] != "" || seen[2] != "userId=user-1" {
		t.Fatalf("unexpected queries: %q", seen)
	}

	liked, err := c.ToggleLike(ctx, "mission-3")
	if err != nil || !liked {
		t.Fatalf("like: %v %v", liked, err)
	}
	res, err := c.Participate(ctx, "mission-3")
	if err != nil || !res.Success || res.Message != "ok mission-3" {
		t.Fatalf("participate: %+v %v", res, err)
	}
	user, err := c.CurrentUser(ctx)
	if err != nil || user.CoinBalance != 28246 {
		t.Fatalf("user: %+v %v", user, err)
	}
}

func TestHTTPCatalogErrors(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/missions/missing/like":
			http.NotFound(w, r)
		case "/api/user/me":
			_, _ = w.Write([]byte(`not json`))
		default:
			http.Error(w, "boom", http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewHTTPCatalog(srv.URL, time.Second)
	ctx := context.Background()
	if _, err := c.ToggleLike(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.ListMissions(ctx, domain.CategoryAll, domain.SortNone); !errors.Is(err, apperrors.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if _, err := c.CurrentUser(ctx); !errors.Is(err, apperrors.ErrUpstream) {
		t.Fatalf("expected decode failure as ErrUpstream, got %v", err)
	}
}
