package domain

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"bnkchallenge/internal/platform/geo"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownSort     = errors.New("unknown sort")
)

type Category string

const (
	CategoryAll      Category = "all"
	CategoryFood     Category = "food"
	CategoryCafe     Category = "cafe"
	CategoryTourist  Category = "tourist"
	CategoryCulture  Category = "culture"
	CategoryFestival Category = "festival"
	CategoryWalk     Category = "walk"
	CategoryShopping Category = "shopping"
	CategorySelfDev  Category = "self-dev"
	CategorySports   Category = "sports"
)

var Categories = []Category{
	CategoryAll, CategoryFood, CategoryCafe, CategoryTourist, CategoryCulture,
	CategoryFestival, CategoryWalk, CategoryShopping, CategorySelfDev, CategorySports,
}

var categoryLabels = map[Category]string{
	CategoryAll:      "전체",
	CategoryFood:     "음식",
	CategoryCafe:     "카페",
	CategoryTourist:  "관광",
	CategoryCulture:  "문화생활",
	CategoryFestival: "축제",
	CategoryWalk:     "산책",
	CategoryShopping: "쇼핑",
	CategorySelfDev:  "자기개발",
	CategorySports:   "스포츠",
}

// Older payloads carry combined Korean category names.
var legacyCategories = map[string]Category{
	"음식카페": CategoryFood,
	"관광명소": CategoryTourist,
	"축제행사": CategoryFestival,
}

func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// ParseCategory accepts API names in any case, Korean labels and legacy names.
// Empty input means all.
func ParseCategory(raw string) (Category, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CategoryAll, nil
	}
	c := Category(strings.ToLower(raw))
	if _, ok := categoryLabels[c]; ok {
		return c, nil
	}
	for cat, label := range categoryLabels {
		if label == raw {
			return cat, nil
		}
	}
	if cat, ok := legacyCategories[raw]; ok {
		return cat, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
}

type SortType string

const (
	SortNone     SortType = ""
	SortDistance SortType = "distance"
	SortPopular  SortType = "popular"
	SortRecent   SortType = "recent"
)

var sortLabels = map[SortType]string{
	SortDistance: "거리순",
	SortPopular:  "인기순",
	SortRecent:   "최신순",
}

func (s SortType) Label() string { return sortLabels[s] }

func ParseSort(raw string) (SortType, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SortNone, nil
	}
	s := SortType(strings.ToLower(raw))
	if _, ok := sortLabels[s]; ok {
		return s, nil
	}
	for sort, label := range sortLabels {
		if label == raw {
			return sort, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSort, raw)
}

type ParticipationStatus string

const (
	ParticipationNone       ParticipationStatus = ""
	ParticipationInProgress ParticipationStatus = "in_progress"
	ParticipationCompleted  ParticipationStatus = "completed"
)

type Mission struct {
	ID                  string              `json:"id" yaml:"id"`
	Title               string              `json:"title" yaml:"title"`
	ImageURL            string              `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Location            string              `json:"location" yaml:"location"`
	LocationDetail      string              `json:"locationDetail,omitempty" yaml:"locationDetail,omitempty"`
	Distance            string              `json:"distance" yaml:"distance"`
	CoinReward          int                 `json:"coinReward" yaml:"coinReward"`
	Category            Category            `json:"category" yaml:"category"`
	IsLiked             bool                `json:"isLiked,omitempty" yaml:"isLiked,omitempty"`
	EndDate             string              `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	Insight             string              `json:"insight,omitempty" yaml:"insight,omitempty"`
	VerificationMethods []string            `json:"verificationMethods,omitempty" yaml:"verificationMethods,omitempty"`
	Coordinates         *geo.Coordinate     `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	ParticipationStatus ParticipationStatus `json:"participationStatus,omitempty" yaml:"participationStatus,omitempty"`
	CompletedAt         *time.Time          `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	ModelProba          *float64            `json:"modelProba,omitempty" yaml:"modelProba,omitempty"`
	FinalScore          *float64            `json:"finalScore,omitempty" yaml:"finalScore,omitempty"`
}

type Preferences struct {
	Categories           []Category `json:"categories" yaml:"categories"`
	IsOnboardingComplete bool       `json:"isOnboardingComplete" yaml:"isOnboardingComplete"`
}

type User struct {
	ID              string       `json:"id" yaml:"id"`
	Name            string       `json:"name" yaml:"name"`
	ProfileImageURL string       `json:"profileImageUrl,omitempty" yaml:"profileImageUrl,omitempty"`
	CoinBalance     int          `json:"coinBalance" yaml:"coinBalance"`
	Preferences     *Preferences `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

type ParticipationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const (
	MessageParticipated     = "미션 참여가 완료되었습니다!"
	MessageAlreadyCompleted = "이미 완료한 미션입니다."
)

// ParseDistanceKm reads labels such as "4.8km" or "800m".
func ParseDistanceKm(label string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(label))
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "km"):
		s = strings.TrimSuffix(s, "km")
	case strings.HasSuffix(s, "m"):
		s = strings.TrimSuffix(s, "m")
		scale = 0.001
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v * scale, true
}

const endDateLayout = "2006.01.02"

func (m Mission) endTime() (time.Time, bool) {
	t, err := time.Parse(endDateLayout, m.EndDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (m Mission) score() float64 {
	if m.FinalScore == nil {
		return 0
	}
	return *m.FinalScore
}

// Filter keeps missions in category. CategoryAll keeps everything.
func Filter(missions []Mission, category Category) []Mission {
	out := make([]Mission, 0, len(missions))
	for _, m := range missions {
		if category == CategoryAll || category == "" || m.Category == category {
			out = append(out, m)
		}
	}
	return out
}

// Sort orders missions in place and keeps the input order for ties.
func Sort(missions []Mission, sort SortType) {
	switch sort {
	case SortDistance:
		slices.SortStableFunc(missions, func(a, b Mission) int {
			da, okA := ParseDistanceKm(a.Distance)
			db, okB := ParseDistanceKm(b.Distance)
			switch {
			case okA && okB:
				return cmp.Compare(da, db)
			case okA:
				return -1
			case okB:
				return 1
			default:
				return 0
			}
		})
	case SortPopular:
		slices.SortStableFunc(missions, func(a, b Mission) int {
			if c := cmp.Compare(b.score(), a.score()); c != 0 {
				return c
			}
			return cmp.Compare(b.CoinReward, a.CoinReward)
		})
	case SortRecent:
		slices.SortStableFunc(missions, func(a, b Mission) int {
			ta, okA := a.endTime()
			tb, okB := b.endTime()
			switch {
			case okA && okB:
				return tb.Compare(ta)
			case okA:
				return -1
			case okB:
				return 1
			default:
				return 0
			}
		})
	}
}

// RankRecommended orders by final score, highest first.
func RankRecommended(missions []Mission) {
	slices.SortStableFunc(missions, func(a, b Mission) int {
		return cmp.Compare(b.score(), a.score())
	})
}
