package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
	"github.com/jmalhotra/tripforge/backend/internal/repo"
)

// exportPageSize is how many trips are pulled from the store per page while
// assembling an export.
const exportPageSize = 100

// ExportService assembles a full flat export of an owner's trips and
// itinerary activities.
type ExportService struct {
	trips repo.TripRepo
}

// NewExportService constructs an ExportService backed by the provided repo.
func NewExportService(trips repo.TripRepo) *ExportService {
	return &ExportService{trips: trips}
}

// Export returns one ExportRow per activity across all of the owner's
// trips. Trips with an empty itinerary contribute one row with empty
// activity fields. Always returns a non-nil slice.
func (s *ExportService) Export(ctx context.Context, ownerID string) ([]domain.ExportRow, error) {
	rows := []domain.ExportRow{}

	for page := 1; ; page++ {
		limit := exportPageSize
		trips, total, err := s.trips.ListByOwner(ctx, ownerID, domain.NewPaginationParams(&page, &limit))
		if err != nil {
			return nil, fmt.Errorf("service.ExportService.Export: %w", err)
		}

		for _, trip := range trips {
			rows = append(rows, tripRows(trip)...)
		}

		if int64(page*exportPageSize) >= total || len(trips) == 0 {
			break
		}
	}

	return rows, nil
}

// tripRows flattens one trip into export rows.
func tripRows(trip domain.Trip) []domain.ExportRow {
	base := domain.ExportRow{
		TripID:          trip.ID.String(),
		TripName:        trip.Name,
		TripDestination: trip.Destination,
		TripStartDate:   trip.StartDate.Format("2006-01-02"),
		TripEndDate:     trip.EndDate.Format("2006-01-02"),
	}

	rows := lo.FlatMap(trip.Itinerary, func(day domain.Day, _ int) []domain.ExportRow {
		return lo.Map(day.Activities, func(act domain.Activity, _ int) domain.ExportRow {
			row := base
			row.Day = day.Number
			row.ActivityID = act.ID
			row.Time = act.Time
			row.Place = act.Place
			row.Description = act.Description
			row.AvgCost = act.AvgCost
			row.Source = activitySource(act)
			return row
		})
	})

	if len(rows) == 0 {
		return []domain.ExportRow{base}
	}
	return rows
}

func activitySource(act domain.Activity) string {
	if act.Manual() {
		return "manual"
	}
	return "generated"
}
