package domain

import "errors"

// ErrSlideNotFound is returned when a slide id does not resolve against the loaded presentation.
var ErrSlideNotFound = errors.New("slide not found")

// ErrPresentationNotFound is returned when no presentation is registered under a code.
var ErrPresentationNotFound = errors.New("presentation not found")

// ErrInvalidPresentation is returned when a presentation document fails validation.
var ErrInvalidPresentation = errors.New("invalid presentation")

// ErrForbidden is returned when a caller without the presenter role tries to move the deck.
var ErrForbidden = errors.New("forbidden")

// ErrUnsafeURL is returned when a URL does not pass the http/https allow-list.
var ErrUnsafeURL = errors.New("unsafe url")

// ErrInvalidCode is returned for presentation codes outside the code alphabet or length.
var ErrInvalidCode = errors.New("invalid presentation code")

// ErrDocumentNotFound is returned by document stores for unknown document names.
var ErrDocumentNotFound = errors.New("document not found")

// ErrInterpolation is returned when a template placeholder cannot be evaluated.
var ErrInterpolation = errors.New("interpolation failed")
