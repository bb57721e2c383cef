package domain

import (
	"errors"
	"strings"
)

const (
	DefaultTitle          = "🎉 챌린지 알림"
	DefaultBody           = "새로운 미션이 도착했습니다!"
	DefaultBroadcastTitle = "📢 전체 공지"
	DefaultBroadcastBody  = "새로운 챌린지가 시작되었습니다!"
)

var ErrMissingToken = errors.New("device token is required")

// Notification is a push message. Token is empty for broadcasts.
type Notification struct {
	Token string
	Title string
	Body  string
}

// Direct builds a single-device notification, filling blank text with defaults.
func Direct(token, title, body string) (Notification, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Notification{}, ErrMissingToken
	}
	return Notification{
		Token: token,
		Title: orDefault(title, DefaultTitle),
		Body:  orDefault(body, DefaultBody),
	}, nil
}

func Broadcast(title, body string) Notification {
	return Notification{
		Title: orDefault(title, DefaultBroadcastTitle),
		Body:  orDefault(body, DefaultBroadcastBody),
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// Receipt is the server acknowledgement.
type Receipt struct {
	Status  int
	Payload []byte
}
