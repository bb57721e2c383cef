package dto

import "time"

type ListInput struct {
	Category string
	Sort     string
}

type MissionOutput struct {
	ID                  string
	Title               string
	ImageURL            string
	Location            string
	LocationDetail      string
	Distance            string
	CoinReward          int
	Category            string
	CategoryLabel       string
	IsLiked             bool
	EndDate             string
	Insight             string
	VerificationMethods []string
	Lat                 *float64
	Lng                 *float64
	ParticipationStatus string
	CompletedAt         *time.Time
	FinalScore          *float64
}

type UserOutput struct {
	ID          string
	Name        string
	CoinBalance int
	Categories  []string
}

type LikeOutput struct {
	MissionID string
	IsLiked   bool
}

type ParticipateOutput struct {
	MissionID string
	Success   bool
	Message   string
}
