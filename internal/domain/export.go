package domain

// ExportRow is a single row in the full-data export.
// It is a flat, denormalized view: one row per activity, with trip fields
// repeated for every activity on that trip. Trips with an empty itinerary
// yield one row with zero values for all day and activity fields.
//
// Source is "manual" for user-added activities and "generated" for
// generation-sourced ones (those without a local identifier).
type ExportRow struct {
	// Trip fields, repeated for every activity on the trip.
	TripID          string
	TripName        string
	TripDestination string
	TripStartDate   string // "2006-01-02" formatted date
	TripEndDate     string

	// Day and activity fields, zeroed when the itinerary is empty.
	Day         int
	ActivityID  string
	Time        string
	Place       string
	Description string
	AvgCost     *float64
	Source      string
}
