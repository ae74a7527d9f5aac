package models

import "time"

// Channel is one entry in the shared radio channel directory.
type Channel struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Frequency    string    `json:"frequency"`
	Description  string    `json:"description"`
	ChannelType  string    `json:"channel_type"`
	Location     string    `json:"location"`
	CoverageArea string    `json:"coverage_area"`
	Tone         string    `json:"tone"`
	Offset       string    `json:"offset"`
	AddedBy      string    `json:"added_by"`
	AddedAt      time.Time `json:"added_at"`
	Verified     bool      `json:"verified"`
	Active       bool      `json:"active"`
}
