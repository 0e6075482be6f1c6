// Package internal holds the view/configuration state shared between the UI
// layer and a running background render job.
package internal

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ViewState is the camera and sampling configuration a render job is bound
// to. The UI keeps one mutable instance; each job receives a deep copy taken
// at spawn time, so mid-render edits only affect the next job.
type ViewState struct {
	Origin          v3.Vec  // Camera position (pinhole model)
	FocalLength     float64 // Distance from the camera to the viewport plane
	SamplesPerPixel int     // Anti-aliasing samples per pixel
	MaxDepth        int     // Shading recursion budget
	UpdateRate      float64 // Target buffer flushes per second per row worker
}

// DefaultViewState returns the configuration used when no option overrides it.
func DefaultViewState() *ViewState {
	return &ViewState{
		FocalLength:     1,
		SamplesPerPixel: 16,
		MaxDepth:        50,
		UpdateRate:      60,
	}
}
