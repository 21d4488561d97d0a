package itinerary

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
)

// fenceRe matches opening and closing triple-backtick markers, with or
// without a language tag, case-insensitively.
var fenceRe = regexp.MustCompile("(?i)```(?:json)?")

// arrayRe matches the first substring shaped like an array of object
// literals: opens with '[', eventually a '{', closes with '}' then ']'.
// This is a heuristic pre-filter over untrusted text, not a JSON grammar;
// the real arbiter is json.Unmarshal on whatever it selects.
var arrayRe = regexp.MustCompile(`\[\s*\{[\s\S]*\}\s*\]`)

// MalformedError reports that generated text contained no parsable JSON.
// It keeps the original raw text for diagnostics and unwraps to
// domain.ErrMalformedItinerary so callers can classify it with errors.Is.
type MalformedError struct {
	Raw string // the original, uncleaned response text
	err error  // the underlying json.Unmarshal error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%v: %v", domain.ErrMalformedItinerary, e.err)
}

func (e *MalformedError) Unwrap() error { return domain.ErrMalformedItinerary }

// Extract locates and parses the JSON array describing an itinerary inside
// a blob of text that may contain code fences, leading or trailing
// commentary, or other non-JSON noise.
//
// The returned value is the parsed JSON passed through unchanged — shape
// checking beyond "valid JSON" is Normalize's job. A parse failure is a
// *MalformedError; an unparsable payload is never partially accepted.
func Extract(raw string) (any, error) {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))

	candidate := cleaned
	if m := arrayRe.FindString(cleaned); m != "" {
		candidate = m
	}

	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, &MalformedError{Raw: raw, err: err}
	}
	return v, nil
}
