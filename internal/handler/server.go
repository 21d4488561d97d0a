// Package handler implements the HTTP handlers for the TripForge API.
// All handlers are methods on Server; methods are split into domain-specific
// files (health.go, trip.go, planner.go, export.go) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
	"github.com/jmalhotra/tripforge/backend/internal/middleware"
	"github.com/jmalhotra/tripforge/backend/internal/service"
	"github.com/jmalhotra/tripforge/backend/spec"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (domain.Trip, error)
	ListPaged(ctx context.Context, ownerID string, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

// Exporter defines the export operation the export handler depends on.
type Exporter interface {
	Export(ctx context.Context, ownerID string) ([]domain.ExportRow, error)
}

// Server holds the dependencies for all API endpoints.
// The planner is the concrete PlannerService: sessions carry per-trip
// state that an interface would only obscure, and handler tests exercise
// it with mocked repo and generator collaborators instead.
type Server struct {
	trips   TripServicer
	planner *service.PlannerService
	export  Exporter
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, planner *service.PlannerService, export Exporter) *Server {
	return &Server{trips: trips, planner: planner, export: export}
}

// Routes assembles the full request router. Everything except the health
// check sits behind the authenticated-owner middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOwner)

		r.Route("/trips", func(r chi.Router) {
			r.Post("/", s.CreateTrip)
			r.Get("/", s.ListTrips)

			r.Route("/{tripID}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Put("/", s.UpdateTrip)
				r.Delete("/", s.DeleteTrip)

				r.Post("/itinerary/generate", s.GenerateItinerary)
				r.Put("/itinerary", s.SaveItinerary)
				r.Post("/itinerary/activities", s.AddActivity)
				r.Delete("/itinerary/days/{dayIdx}/activities/{activityID}", s.RemoveActivity)
				r.Delete("/session", s.CloseSession)
			})
		})

		r.Get("/export", s.GetExport)
	})

	return r
}

// serveOpenAPI returns the embedded API specification.
func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(spec.OpenAPI) //nolint:errcheck
}

// tripID parses the {tripID} URL parameter. A malformed UUID reads the same
// as a missing trip to the client.
func tripID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "tripID"))
	return id, err == nil
}
