// Package predictor models the external tumor-classification capability.
// The model may be absent entirely; callers are handed whichever variant
// was selected at startup and never branch on availability themselves.
package predictor

import "context"

// NeutralLabel is the fixed output used when no model is available.
const NeutralLabel = "no_tumor"

// Predictor labels an image on disk and reports the model's confidence
// in [0, 1].
type Predictor interface {
	Predict(ctx context.Context, imagePath string) (label string, confidence float64, err error)
}

// Unavailable is the degraded variant selected when the model backend
// is not configured. It always returns the neutral label with zero
// confidence and never fails.
type Unavailable struct{}

func NewUnavailable() Unavailable {
	return Unavailable{}
}

func (Unavailable) Predict(ctx context.Context, imagePath string) (string, float64, error) {
	return NeutralLabel, 0, nil
}
