package dto

import "time"

type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64
	At        time.Time
}

type State struct {
	Position *Position
	Err      error
	Message  string
	Loading  bool
	Source   string
}
