// Package itinerary implements the itinerary synthesis and reconciliation
// core: building generation prompts from trip parameters, extracting a
// structured candidate from raw model output, normalizing it into the
// canonical domain model, and applying manual edits without disturbing
// unrelated days. Everything in this package is pure — no I/O, no clocks
// beyond identifier generation.
package itinerary

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
)

// DaySpan returns the inclusive number of days covered by [start, end]:
// round((end-start) in days) + 1, floored at 1. Zero-value dates, equal
// dates, and inverted ranges all yield 1 — the prompt builder never fails,
// it falls back to safe defaults.
func DaySpan(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 1
	}
	diff := int(math.Round(end.Sub(start).Hours() / 24))
	if diff < 0 {
		return 1
	}
	return diff + 1
}

// BuildPrompt derives the generation instruction from a trip's parameters.
// The instruction names the exact JSON shape required, states the day
// count, trip type, destination, traveller count, and budget, and forbids
// any text outside the JSON array. Pure function of its input.
func BuildPrompt(trip domain.Trip) string {
	days := DaySpan(trip.StartDate, trip.EndDate)

	travellers := trip.Travellers
	if travellers < 1 {
		travellers = 1
	}
	budget := trip.Budget
	if budget < 0 {
		budget = 0
	}

	prefs := "None"
	if len(trip.Preferences) > 0 {
		prefs = strings.Join(trip.Preferences, "; ")
	}

	var b strings.Builder
	b.WriteString("Act as an itinerary generator. Reply ONLY with valid JSON matching the schema: ")
	b.WriteString(`[{"day":<int>,"activities":[{"time":"HH:MM","place":"","description":"","avg_cost":<number>}]}]. `)
	fmt.Fprintf(&b, "Generate a %d-day %s itinerary for %s for %d travelers on a budget of %s. ",
		days, trip.Type, trip.Destination, travellers, formatBudget(budget))
	fmt.Fprintf(&b, "Use these preferences: %s. ", prefs)
	b.WriteString("Make each activity short (time, place, description, avg_cost). ")
	b.WriteString("Return JSON only, no extra text and no markdown.")
	return b.String()
}

// formatBudget renders a budget without a trailing ".00" for whole amounts.
// Budgets are currency-agnostic, so no symbol is attached.
func formatBudget(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
