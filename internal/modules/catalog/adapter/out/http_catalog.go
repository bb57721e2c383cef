package out

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bnkchallenge/internal/modules/catalog/domain"
	apperrors "bnkchallenge/internal/platform/errors"
)

const maxErrorBody = 4 << 10

// HTTPCatalog talks to the mission REST API.
type HTTPCatalog struct {
	baseURL string
	client  *http.Client
}

func NewHTTPCatalog(baseURL string, timeout time.Duration) *HTTPCatalog {
	return &HTTPCatalog{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPCatalog) ListMissions(ctx context.Context, category domain.Category, sort domain.SortType) ([]domain.Mission, error) {
	params := url.Values{}
	if category != "" && category != domain.CategoryAll {
		params.Set("category", string(category))
	}
	if sort != domain.SortNone {
		params.Set("sort", string(sort))
	}
	var out []domain.Mission
	if err := c.do(ctx, http.MethodGet, "/api/missions", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPCatalog) Recommended(ctx context.Context, userID string) ([]domain.Mission, error) {
	params := url.Values{}
	if userID != "" {
		params.Set("userId", userID)
	}
	var out []domain.Mission
	if err := c.do(ctx, http.MethodGet, "/api/missions/ai-recommend", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPCatalog) ToggleLike(ctx context.Context, missionID string) (bool, error) {
	var out struct {
		IsLiked bool `json:"isLiked"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/missions/"+url.PathEscape(missionID)+"/like", nil, &out); err != nil {
		return false, err
	}
	return out.IsLiked, nil
}

func (c *HTTPCatalog) Participate(ctx context.Context, missionID string) (domain.ParticipationResult, error) {
	var out domain.ParticipationResult
	if err := c.do(ctx, http.MethodPost, "/api/missions/"+url.PathEscape(missionID)+"/participate", nil, &out); err != nil {
		return domain.ParticipationResult{}, err
	}
	return out, nil
}

func (c *HTTPCatalog) CurrentUser(ctx context.Context) (domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodGet, "/api/user/me", nil, &out); err != nil {
		return domain.User{}, err
	}
	return out, nil
}

func (c *HTTPCatalog) do(ctx context.Context, method, path string, params url.Values, out any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", apperrors.ErrUpstream, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s: status %d: %s", apperrors.ErrUpstream, method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", apperrors.ErrUpstream, method, path, err)
	}
	return nil
}
