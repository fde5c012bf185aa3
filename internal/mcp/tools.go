package mcp

import "github.com/artemshloyda/photoresizer/internal/resizer"

// ConfigureFoldersInput - вход configure_folders.
type ConfigureFoldersInput struct {
	Source      string `json:"source" jsonschema:"existing folder with source images"`
	Destination string `json:"destination" jsonschema:"folder for resized images, created if missing"`
}

// ConfigurePolicyInput - вход configure_policy.
type ConfigurePolicyInput struct {
	ScalingFactor        *float64 `json:"scaling_factor,omitempty" jsonschema:"multiplier applied to both sides"`
	SingleSideResolution *int     `json:"single_side_resolution,omitempty" jsonschema:"target length of the longer side in pixels, 0 disables"`
}

// EmptyInput - вход инструментов без параметров.
type EmptyInput struct{}

// PollEventsInput - вход poll_events.
type PollEventsInput struct {
	Max int `json:"max,omitempty" jsonschema:"maximum number of events to return, 0 for all"`
}

// PollEventsOutput - выход poll_events.
type PollEventsOutput struct {
	Events  []resizer.Result `json:"events"`
	Dropped int64            `json:"dropped"`
}
