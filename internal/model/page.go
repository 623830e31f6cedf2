package model

import "time"

// StatusKind identifies which advisory template was chosen.
type StatusKind string

const (
	StatusGoLookUp       StatusKind = "go_look_up"
	StatusNotTonight     StatusKind = "not_tonight"
	StatusCheckBackLater StatusKind = "check_back_later"
	StatusWaitForNight   StatusKind = "wait_for_night"
)

// GoLookStatus is the advisory shown to the visitor. Message is HTML.
type GoLookStatus struct {
	Kind     StatusKind `json:"kind"`
	Headline string     `json:"headline"`
	Message  string     `json:"message"`
	Night    bool       `json:"night"`
	Clear    bool       `json:"clear"`
	Overhead bool       `json:"overhead"`
}

// PageData is everything the index page needs, and what /page_data serves.
type PageData struct {
	Visitor     Coordinates  `json:"visitor"`
	ISS         ISSPosition  `json:"iss"`
	Weather     Weather      `json:"weather"`
	Sun         SunTimes     `json:"sun"`
	Status      GoLookStatus `json:"status"`
	Tolerance   float64      `json:"overhead_tolerance"`
	Timezone    string       `json:"timezone"`
	GeneratedAt time.Time    `json:"generated_at"`
}
