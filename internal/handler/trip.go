package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
	"github.com/jmalhotra/tripforge/backend/internal/middleware"
)

// dateLayout is how dates travel on the wire, matching the stored DATE columns.
const dateLayout = "2006-01-02"

// tripRequest is the request body for POST /trips and PUT /trips/{id}.
type tripRequest struct {
	Name        string            `json:"name"`
	Destination string            `json:"destination"`
	StartDate   string            `json:"start_date"`
	EndDate     string            `json:"end_date"`
	Travellers  int               `json:"travellers"`
	Budget      float64           `json:"budget"`
	Type        domain.TripType   `json:"type"`
	Status      domain.TripStatus `json:"status,omitempty"`
	Preferences []string          `json:"preferences,omitempty"`
}

// tripResponse is the JSON shape of a trip. The owner reference is implied
// by the authenticated request and never echoed back.
type tripResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Destination string            `json:"destination"`
	StartDate   string            `json:"start_date"`
	EndDate     string            `json:"end_date"`
	Travellers  int               `json:"travellers"`
	Budget      float64           `json:"budget"`
	Type        domain.TripType   `json:"type"`
	Status      domain.TripStatus `json:"status"`
	Preferences []string          `json:"preferences"`
	Itinerary   domain.Itinerary  `json:"itinerary"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// listTripsResponse wraps a trip page with pagination metadata.
type listTripsResponse struct {
	Data       []tripResponse `json:"data"`
	Pagination pagination     `json:"pagination"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := decodeTrip(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	created, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))

	trips, total, err := s.trips.ListPaged(r.Context(), middleware.Owner(r.Context()), params)
	if err != nil {
		respondError(w, err)
		return
	}

	data := make([]tripResponse, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, listTripsResponse{
		Data: data,
		Pagination: pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(r)
	if !ok {
		respondError(w, domain.ErrNotFound)
		return
	}

	trip, err := s.trips.GetByID(r.Context(), middleware.Owner(r.Context()), id)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PUT /trips/{tripID}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(r)
	if !ok {
		respondError(w, domain.ErrNotFound)
		return
	}

	trip, err := decodeTrip(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}
	trip.ID = id

	updated, err := s.trips.Update(r.Context(), trip)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{tripID}. It also tears down any live
// planner session for the trip, so a stale session cannot write back a
// deleted trip's itinerary.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(r)
	if !ok {
		respondError(w, domain.ErrNotFound)
		return
	}

	owner := middleware.Owner(r.Context())
	if err := s.trips.Delete(r.Context(), owner, id); err != nil {
		respondError(w, err)
		return
	}
	s.planner.CloseSession(owner, id)

	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// decodeTrip parses a trip request body into a domain.Trip, stamping the
// authenticated owner. Date parse failures surface as request errors; full
// business validation happens in the service.
func decodeTrip(r *http.Request) (domain.Trip, error) {
	var body tripRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return domain.Trip{}, errValidRequestBody
	}

	trip := domain.Trip{
		OwnerID:     middleware.Owner(r.Context()),
		Name:        body.Name,
		Destination: body.Destination,
		Travellers:  body.Travellers,
		Budget:      body.Budget,
		Type:        body.Type,
		Status:      body.Status,
		Preferences: body.Preferences,
	}
	if body.Status == "" {
		trip.Status = domain.StatusPlanning
	}

	var err error
	if body.StartDate != "" {
		if trip.StartDate, err = time.Parse(dateLayout, body.StartDate); err != nil {
			return domain.Trip{}, errInvalidStartDate
		}
	}
	if body.EndDate != "" {
		if trip.EndDate, err = time.Parse(dateLayout, body.EndDate); err != nil {
			return domain.Trip{}, errInvalidEndDate
		}
	}
	return trip, nil
}

var (
	errValidRequestBody = errors.New("a valid JSON request body is required")
	errInvalidStartDate = errors.New("start_date must be formatted as YYYY-MM-DD")
	errInvalidEndDate   = errors.New("end_date must be formatted as YYYY-MM-DD")
)

// tripToResponse converts a domain.Trip into its JSON shape.
func tripToResponse(t domain.Trip) tripResponse {
	resp := tripResponse{
		ID:          t.ID,
		Name:        t.Name,
		Destination: t.Destination,
		StartDate:   t.StartDate.Format(dateLayout),
		EndDate:     t.EndDate.Format(dateLayout),
		Travellers:  t.Travellers,
		Budget:      t.Budget,
		Type:        t.Type,
		Status:      t.Status,
		Preferences: t.Preferences,
		Itinerary:   t.Itinerary,
	}
	resp.CreatedAt = t.CreatedAt
	resp.UpdatedAt = t.UpdatedAt
	if resp.Preferences == nil {
		resp.Preferences = []string{}
	}
	if resp.Itinerary == nil {
		resp.Itinerary = domain.Itinerary{}
	}
	return resp
}

// queryInt reads an integer query parameter, returning nil when absent or
// malformed so pagination falls back to its defaults.
func queryInt(r *http.Request, key string) *int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
