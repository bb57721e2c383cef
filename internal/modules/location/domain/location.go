package domain

import (
	"errors"
	"time"
)

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("location request timed out")
	ErrUnsupported         = errors.New("location services unsupported")
	ErrUnknown             = errors.New("unknown location error")
)

const RequestTimeout = 15 * time.Second

type GeoPosition struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64
	At        time.Time
}

type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// DefaultOptions mirrors what every acquisition asks of the platform.
func DefaultOptions() PositionOptions {
	return PositionOptions{
		HighAccuracy: true,
		Timeout:      RequestTimeout,
		MaximumAge:   10 * time.Second,
	}
}

type SourceKind string

const (
	SourceHostBridge          SourceKind = "host_bridge"
	SourcePlatformGeolocation SourceKind = "platform_geolocation"
)

// Classify folds any acquisition error into one of the five location errors.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrPositionUnavailable),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrUnsupported),
		errors.Is(err, ErrUnknown):
		return err
	default:
		return errors.Join(ErrUnknown, err)
	}
}

// Message renders a user-facing message for a location error.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "위치 권한이 거부되었습니다."
	case errors.Is(err, ErrPositionUnavailable):
		return "위치를 가져올 수 없습니다."
	case errors.Is(err, ErrTimeout):
		return "위치 요청 시간이 초과되었습니다."
	case errors.Is(err, ErrUnsupported):
		return "이 기기에서는 위치 서비스를 지원하지 않습니다."
	default:
		return "알 수 없는 오류가 발생했습니다."
	}
}
