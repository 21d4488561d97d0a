package itinerary

import (
	"fmt"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
)

// Normalize coerces the parsed JSON value from Extract into the canonical
// Itinerary model. The top-level value must be an array; everything below
// that is normalized tolerantly, because generation output is often
// incomplete:
//
//   - a day element that is not an object, or whose "activities" field is
//     missing or malformed, becomes a day with no activities;
//   - a day number that is missing, non-positive, or a duplicate of an
//     earlier day falls back to the lowest unused number at or above its
//     position, keeping day numbers unique;
//   - activity fields absent in the source stay absent in the normalized
//     record — nothing is fabricated, and no identifiers are assigned
//     (identifiers belong only to manually added activities).
//
// The result is intended to replace the previous in-memory itinerary
// wholesale; regeneration is a start-over action, not a merge.
func Normalize(v any) (domain.Itinerary, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("itinerary.Normalize: %w", domain.ErrInvalidItineraryShape)
	}

	it := make(domain.Itinerary, 0, len(arr))
	used := make(map[int]bool, len(arr))

	for i, el := range arr {
		day := domain.Day{Activities: []domain.Activity{}}

		obj, ok := el.(map[string]any)
		if ok {
			if n, ok := asInt(obj["day"]); ok && n >= 1 && !used[n] {
				day.Number = n
			}
			if acts, ok := obj["activities"].([]any); ok {
				for _, a := range acts {
					m, ok := a.(map[string]any)
					if !ok {
						continue
					}
					day.Activities = append(day.Activities, normalizeActivity(m))
				}
			}
		}

		if day.Number == 0 {
			day.Number = nextFree(used, i+1)
		}
		used[day.Number] = true
		it = append(it, day)
	}

	return it, nil
}

// normalizeActivity copies through whatever recognized fields are present.
// Negative costs are treated as absent.
func normalizeActivity(m map[string]any) domain.Activity {
	var act domain.Activity
	if s, ok := m["time"].(string); ok {
		act.Time = s
	}
	if s, ok := m["place"].(string); ok {
		act.Place = s
	}
	if s, ok := m["description"].(string); ok {
		act.Description = s
	}
	if c, ok := asFloat(m["avg_cost"]); ok && c >= 0 {
		act.AvgCost = &c
	}
	return act
}

// asInt accepts the numeric representations json.Unmarshal may produce for
// a day number. Fractional values are rejected rather than rounded.
func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func asFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// nextFree returns the lowest unused day number >= from.
func nextFree(used map[int]bool, from int) int {
	n := from
	for used[n] {
		n++
	}
	return n
}
