package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist. Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned when a resource exists but belongs to a
// different owner than the authenticated user.
// Handlers should map this to HTTP 403.
var ErrUnauthorized = errors.New("unauthorized")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrBusy is returned by a planner session when an action is triggered while
// a conflicting asynchronous step (generation or save) is still outstanding.
// Handlers should map this to HTTP 409 Conflict. The action may be retried
// once the in-flight step settles.
var ErrBusy = errors.New("operation already in progress")

// ErrGenerationFailed covers the generation round trip: network errors,
// non-success status codes, and empty or absent completion payloads.
var ErrGenerationFailed = errors.New("generation failed")

// ErrMalformedItinerary is returned when the generated text contains no
// parsable JSON after extraction. The raw text is preserved on the wrapping
// error for diagnostics; an unparsable payload is never partially accepted.
var ErrMalformedItinerary = errors.New("malformed itinerary")

// ErrInvalidItineraryShape is returned when the generated text parses as
// JSON but the top-level value is not an array.
var ErrInvalidItineraryShape = errors.New("itinerary is not an array")
