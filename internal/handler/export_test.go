package handler_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
	"github.com/jmalhotra/tripforge/backend/internal/handler"
)

// ---- mock Exporter ---------------------------------------------------------

type mockExporter struct {
	export func(ctx context.Context, ownerID string) ([]domain.ExportRow, error)
}

func (m *mockExporter) Export(ctx context.Context, ownerID string) ([]domain.ExportRow, error) {
	return m.export(ctx, ownerID)
}

// compile-time check: mockExporter must satisfy handler.Exporter.
var _ handler.Exporter = (*mockExporter)(nil)

// ---- helpers ---------------------------------------------------------------

// newExportHTTPHandler wires a Server with only the export service mock.
func newExportHTTPHandler(export handler.Exporter) http.Handler {
	srv := handler.NewServer(nil, nil, export)
	return srv.Routes()
}

// exportRowFixture returns a fully-populated domain.ExportRow for testing.
func exportRowFixture() domain.ExportRow {
	cost := 25.5
	return domain.ExportRow{
		TripID:          uuid.New().String(),
		TripName:        "Rajasthan Circuit",
		TripDestination: "Jaipur",
		TripStartDate:   "2027-03-10",
		TripEndDate:     "2027-03-14",
		Day:             1,
		ActivityID:      "local-abc",
		Time:            "Morning",
		Place:           "Amber Fort",
		Description:     "Guided tour",
		AvgCost:         &cost,
		Source:          "manual",
	}
}

// ---- GET /export (JSON) ----------------------------------------------------

func TestGetExport_DefaultJSON(t *testing.T) {
	row := exportRowFixture()
	svc := &mockExporter{
		export: func(_ context.Context, ownerID string) ([]domain.ExportRow, error) {
			assert.Equal(t, testOwner, ownerID)
			return []domain.ExportRow{row}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/export", nil)
	rec := httptest.NewRecorder()
	newExportHTTPHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var rows []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, row.TripName, rows[0]["trip_name"])
	assert.Equal(t, row.Place, rows[0]["place"])
	assert.Equal(t, *row.AvgCost, rows[0]["avg_cost"])
}

func TestGetExport_DefaultJSON_EmptyResult(t *testing.T) {
	svc := &mockExporter{
		export: func(_ context.Context, _ string) ([]domain.ExportRow, error) {
			return []domain.ExportRow{}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/export", nil)
	rec := httptest.NewRecorder()
	newExportHTTPHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	// Must be a JSON array, not null.
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

// ---- GET /export?format=csv ------------------------------------------------

func TestGetExport_CSV(t *testing.T) {
	row := exportRowFixture()
	empty := domain.ExportRow{
		TripID:          uuid.New().String(),
		TripName:        "Unplanned Getaway",
		TripDestination: "Goa",
		TripStartDate:   "2027-05-01",
		TripEndDate:     "2027-05-03",
	}
	svc := &mockExporter{
		export: func(_ context.Context, _ string) ([]domain.ExportRow, error) {
			return []domain.ExportRow{row, empty}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/export?format=csv", nil)
	rec := httptest.NewRecorder()
	newExportHTTPHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "trips.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "trip_id", records[0][0])
	assert.Equal(t, "source", records[0][11])

	assert.Equal(t, row.TripName, records[1][1])
	assert.Equal(t, "1", records[1][5])
	assert.Equal(t, "25.5", records[1][10])
	assert.Equal(t, "manual", records[1][11])

	// Trip without activities keeps its trip columns and blanks the rest.
	assert.Equal(t, "Unplanned Getaway", records[2][1])
	assert.Equal(t, "", records[2][5])
	assert.Equal(t, "", records[2][11])
}

func TestGetExport_500_StoreFailure(t *testing.T) {
	svc := &mockExporter{
		export: func(_ context.Context, _ string) ([]domain.ExportRow, error) {
			return nil, assert.AnError
		},
	}

	req := authedRequest(http.MethodGet, "/export", nil)
	rec := httptest.NewRecorder()
	newExportHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
