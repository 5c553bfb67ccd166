package domain

// CurrentState is the shared pointer to the active slide.
// It is written by the presenter only.
type CurrentState struct {
	CurrentSlideID string `json:"currentSlideId"`
}
