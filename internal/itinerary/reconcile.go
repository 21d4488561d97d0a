package itinerary

import (
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
)

// localIDPrefix marks identifiers minted for manually added activities.
// The prefix keeps manual entries visually obvious in stored documents;
// the UUID suffix guarantees uniqueness under rapid successive adds and
// can never collide with identifiers already present in a loaded or
// generated itinerary.
const localIDPrefix = "local-"

// NewLocalID returns a fresh identifier for a manually added activity.
func NewLocalID() string {
	return localIDPrefix + uuid.NewString()
}

// AddActivity appends a new manual activity to the day numbered dayNumber,
// creating empty days up to and including that number when it does not
// exist yet (gap-filling, preserving numeric order). Day numbers below 1
// are clamped to 1.
//
// The input itinerary is not mutated: the day list and the target day's
// activity slice are copied, while every unrelated day keeps its existing
// activity slice. The new activity, with its freshly assigned identifier,
// is returned alongside the updated itinerary.
func AddActivity(it domain.Itinerary, dayNumber int, act domain.Activity) (domain.Itinerary, domain.Activity) {
	if dayNumber < 1 {
		dayNumber = 1
	}
	act.ID = NewLocalID()

	out := make(domain.Itinerary, len(it), len(it)+1)
	copy(out, it)

	idx := out.Day(dayNumber)
	if idx == -1 {
		maxNumber := 0
		for _, d := range out {
			if d.Number > maxNumber {
				maxNumber = d.Number
			}
		}
		if maxNumber < dayNumber {
			for n := maxNumber + 1; n <= dayNumber; n++ {
				out = append(out, domain.Day{Number: n, Activities: []domain.Activity{}})
			}
		} else {
			// The itinerary is non-contiguous with days past the target;
			// insert only the missing day and restore numeric order.
			out = append(out, domain.Day{Number: dayNumber, Activities: []domain.Activity{}})
			sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
		}
		idx = out.Day(dayNumber)
	}

	day := out[idx]
	acts := make([]domain.Activity, len(day.Activities), len(day.Activities)+1)
	copy(acts, day.Activities)
	day.Activities = append(acts, act)
	out[idx] = day

	return out, act
}

// RemoveActivity filters the activity with the given identifier out of the
// day at position dayIdx. An out-of-range index or an identifier not
// present in that day's activities is a no-op. Only the target day's
// activity slice is rebuilt; all other days keep their existing slices.
func RemoveActivity(it domain.Itinerary, dayIdx int, activityID string) domain.Itinerary {
	if dayIdx < 0 || dayIdx >= len(it) {
		return it
	}

	out := make(domain.Itinerary, len(it))
	copy(out, it)

	day := out[dayIdx]
	day.Activities = lo.Filter(day.Activities, func(a domain.Activity, _ int) bool {
		return a.ID != activityID
	})
	out[dayIdx] = day

	return out
}

// Snapshot returns the persistence-ready form of the itinerary: all days
// in day-number order, each with its activities in current order. This is
// the unit handed to the trip store — always a whole-document replacement,
// never a field-level delta.
func Snapshot(it domain.Itinerary) domain.Itinerary {
	out := make(domain.Itinerary, len(it))
	copy(out, it)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
