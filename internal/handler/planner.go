package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
	"github.com/jmalhotra/tripforge/backend/internal/middleware"
	"github.com/jmalhotra/tripforge/backend/internal/service"
)

// itineraryResponse is the JSON shape returned by every planner endpoint
// that mutates the session's working itinerary.
type itineraryResponse struct {
	State     string           `json:"state"`
	Itinerary domain.Itinerary `json:"itinerary"`
}

// addActivityRequest is the request body for POST .../itinerary/activities.
type addActivityRequest struct {
	Day         int      `json:"day"`
	Time        string   `json:"time"`
	Place       string   `json:"place"`
	Description string   `json:"description"`
	AvgCost     *float64 `json:"avg_cost"`
}

// addActivityResponse echoes the created activity alongside the updated
// itinerary so the client learns the assigned identifier.
type addActivityResponse struct {
	State     string           `json:"state"`
	Activity  domain.Activity  `json:"activity"`
	Itinerary domain.Itinerary `json:"itinerary"`
}

// GenerateItinerary handles POST /trips/{tripID}/itinerary/generate.
// It runs a full generation pass inside the trip's planner session and
// returns the new working itinerary. The previous working itinerary is
// kept untouched if generation fails.
func (s *Server) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	it, err := sess.Generate(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, itineraryResponse{State: string(sess.State()), Itinerary: it})
}

// SaveItinerary handles PUT /trips/{tripID}/itinerary.
// It persists the session's working itinerary and returns the saved trip.
func (s *Server) SaveItinerary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	trip, err := sess.Save(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// AddActivity handles POST /trips/{tripID}/itinerary/activities.
func (s *Server) AddActivity(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var body addActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		requestError(w, "a valid JSON request body is required")
		return
	}
	if body.Place == "" {
		requestError(w, "place is required")
		return
	}

	act, it, err := sess.AddActivity(body.Day, domain.Activity{
		Time:        body.Time,
		Place:       body.Place,
		Description: body.Description,
		AvgCost:     body.AvgCost,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, addActivityResponse{
		State:     string(sess.State()),
		Activity:  act,
		Itinerary: it,
	})
}

// RemoveActivity handles DELETE /trips/{tripID}/itinerary/days/{dayIdx}/activities/{activityID}.
// The day is addressed by position in the working itinerary, not by its
// display number. Removing an unknown day or activity is a no-op.
func (s *Server) RemoveActivity(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	dayIdx, err := strconv.Atoi(chi.URLParam(r, "dayIdx"))
	if err != nil {
		requestError(w, "day index must be an integer")
		return
	}

	it, err := sess.RemoveActivity(dayIdx, chi.URLParam(r, "activityID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, itineraryResponse{State: string(sess.State()), Itinerary: it})
}

// CloseSession handles DELETE /trips/{tripID}/session.
// Discards the trip's planner session and any unsaved working itinerary.
// Closing is idempotent; a missing session is not an error.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(r)
	if !ok {
		respondError(w, domain.ErrNotFound)
		return
	}

	s.planner.CloseSession(middleware.Owner(r.Context()), id)
	w.WriteHeader(http.StatusNoContent)
}

// session resolves the planner session for the request's trip, writing the
// error response itself when resolution fails.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	id, ok := tripID(r)
	if !ok {
		respondError(w, domain.ErrNotFound)
		return nil, false
	}

	sess, err := s.planner.Session(r.Context(), middleware.Owner(r.Context()), id)
	if err != nil {
		respondError(w, err)
		return nil, false
	}
	return sess, true
}
