package domain

// Itinerary is the day-by-day plan attached to a Trip: an ordered sequence
// of Days. Day numbers are unique within one Itinerary and start at 1; the
// generation pipeline always produces a contiguous 1..N range, but manual
// construction may leave gaps.
//
// The JSON form of an Itinerary is exactly the persisted representation:
// [{"day":1,"activities":[{"time":...,"place":...,...}]}].
type Itinerary []Day

// Day is a numbered bucket of Activities. The order of Activities is
// meaningful — it is the planned sequence within the day.
type Day struct {
	Number     int        `json:"day"`
	Activities []Activity `json:"activities"`
}

// Activity is a single planned action within a Day.
//
// ID is set only for manually added activities; generation-sourced
// activities carry no ID, and that absence is what distinguishes the two.
// Time is a free-form "HH:MM" string and is not validated against the
// clock. AvgCost is a pointer so that "no cost given" survives a
// marshal/unmarshal round trip instead of collapsing to zero.
type Activity struct {
	ID          string   `json:"id,omitempty"`
	Time        string   `json:"time,omitempty"`
	Place       string   `json:"place,omitempty"`
	Description string   `json:"description,omitempty"`
	AvgCost     *float64 `json:"avg_cost,omitempty"`
}

// Manual reports whether the activity was added by the user rather than
// produced by generation.
func (a Activity) Manual() bool { return a.ID != "" }

// Day returns the index of the day numbered n, or -1 if no such day exists.
func (it Itinerary) Day(n int) int {
	for i, d := range it {
		if d.Number == n {
			return i
		}
	}
	return -1
}
