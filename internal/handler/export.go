// Package handler — export.go implements GET /export.
// Returns all trips and activities as a flat table.
// Supports content negotiation via ?format=csv (CSV) or default (JSON).
package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
	"github.com/jmalhotra/tripforge/backend/internal/middleware"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_name", "trip_destination",
	"trip_start_date", "trip_end_date",
	"day", "activity_id", "time", "place", "description",
	"avg_cost", "source",
}

// exportRowResponse is the JSON shape of a single export row.
// Empty activity fields are omitted; trip fields are always present.
type exportRowResponse struct {
	TripID          string   `json:"trip_id"`
	TripName        string   `json:"trip_name"`
	TripDestination string   `json:"trip_destination"`
	TripStartDate   string   `json:"trip_start_date"`
	TripEndDate     string   `json:"trip_end_date"`
	Day             int      `json:"day,omitempty"`
	ActivityID      string   `json:"activity_id,omitempty"`
	Time            string   `json:"time,omitempty"`
	Place           string   `json:"place,omitempty"`
	Description     string   `json:"description,omitempty"`
	AvgCost         *float64 `json:"avg_cost,omitempty"`
	Source          string   `json:"source,omitempty"`
}

// GetExport implements GET /export.
// It returns a flat table of every trip and activity combination for the
// authenticated owner. Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.export.Export(r.Context(), middleware.Owner(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeCSVResponse(w, rows)
		return
	}

	out := make([]exportRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, domainRowToJSONRow(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSVResponse encodes domain rows as CSV and streams them out.
func writeCSVResponse(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck — bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write(domainRowToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trips.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w) //nolint:errcheck
}

// domainRowToJSONRow maps a domain.ExportRow to its JSON shape.
func domainRowToJSONRow(r domain.ExportRow) exportRowResponse {
	return exportRowResponse{
		TripID:          r.TripID,
		TripName:        r.TripName,
		TripDestination: r.TripDestination,
		TripStartDate:   r.TripStartDate,
		TripEndDate:     r.TripEndDate,
		Day:             r.Day,
		ActivityID:      r.ActivityID,
		Time:            r.Time,
		Place:           r.Place,
		Description:     r.Description,
		AvgCost:         r.AvgCost,
		Source:          r.Source,
	}
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Zero day numbers and nil costs become empty strings.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	day := ""
	if r.Day > 0 {
		day = strconv.Itoa(r.Day)
	}
	cost := ""
	if r.AvgCost != nil {
		cost = strconv.FormatFloat(*r.AvgCost, 'f', -1, 64)
	}
	return []string{
		r.TripID,
		r.TripName,
		r.TripDestination,
		r.TripStartDate,
		r.TripEndDate,
		day,
		r.ActivityID,
		r.Time,
		r.Place,
		r.Description,
		cost,
		r.Source,
	}
}
