package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
	"github.com/jmalhotra/tripforge/backend/internal/genai"
	"github.com/jmalhotra/tripforge/backend/internal/handler"
	"github.com/jmalhotra/tripforge/backend/internal/repo"
	"github.com/jmalhotra/tripforge/backend/internal/service"
)

// mockTripRepo is a test double for repo.TripRepo backing the planner's
// real service layer. Set only the method fields your test needs.
type mockTripRepo struct {
	getByID          func(ctx context.Context, ownerID string, id uuid.UUID) (domain.Trip, error)
	replaceItinerary func(ctx context.Context, ownerID string, id uuid.UUID, it domain.Itinerary) (domain.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	panic("not wired")
}
func (m *mockTripRepo) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, ownerID, id)
}
func (m *mockTripRepo) ListByOwner(ctx context.Context, ownerID string, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	panic("not wired")
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	panic("not wired")
}
func (m *mockTripRepo) ReplaceItinerary(ctx context.Context, ownerID string, id uuid.UUID, it domain.Itinerary) (domain.Trip, error) {
	return m.replaceItinerary(ctx, ownerID, id, it)
}
func (m *mockTripRepo) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	panic("not wired")
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

// mockGenerator returns a canned LLM response.
type mockGenerator struct {
	generate func(ctx context.Context, prompt string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return m.generate(ctx, prompt)
}

var _ genai.Generator = (*mockGenerator)(nil)

// blockingGenerator parks until released, so a test can issue a second
// request while generation is still in flight.
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *blockingGenerator) Generate(ctx context.Context, _ string) (string, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return "[]", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ---- helpers ---------------------------------------------------------------

func plannerTripFixture() domain.Trip {
	trip := tripFixture()
	trip.Itinerary = domain.Itinerary{
		{Number: 1, Activities: []domain.Activity{
			{Time: "Morning", Place: "Amber Fort", Description: "Guided tour"},
			{ID: "local-keep", Time: "Evening", Place: "Chokhi Dhani"},
		}},
	}
	return trip
}

func fixtureRepo(trip domain.Trip) *mockTripRepo {
	return &mockTripRepo{
		getByID: func(_ context.Context, ownerID string, id uuid.UUID) (domain.Trip, error) {
			if ownerID != trip.OwnerID || id != trip.ID {
				return domain.Trip{}, domain.ErrNotFound
			}
			return trip, nil
		},
	}
}

// newPlannerHandler wires a real PlannerService over mocked storage and
// generation collaborators.
func newPlannerHandler(r repo.TripRepo, gen genai.Generator) http.Handler {
	planner := service.NewPlannerService(r, gen, nil)
	return handler.NewServer(nil, planner, nil).Routes()
}

// ---- POST /trips/{id}/itinerary/generate -----------------------------------

func TestGenerateItinerary_200(t *testing.T) {
	trip := plannerTripFixture()
	gen := &mockGenerator{generate: func(_ context.Context, _ string) (string, error) {
		return "```json\n[{\"day\":1,\"activities\":[{\"time\":\"Morning\",\"place\":\"City Palace\"}]}]\n```", nil
	}}

	req := authedRequest(http.MethodPost, "/trips/"+trip.ID.String()+"/itinerary/generate", nil)
	rec := httptest.NewRecorder()

	newPlannerHandler(fixtureRepo(trip), gen).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		State     string           `json:"state"`
		Itinerary domain.Itinerary `json:"itinerary"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ready", resp.State)
	require.Len(t, resp.Itinerary, 1)
	require.Len(t, resp.Itinerary[0].Activities, 1)
	assert.Equal(t, "City Palace", resp.Itinerary[0].Activities[0].Place)
}

func TestGenerateItinerary_502_GenerationFailed(t *testing.T) {
	trip := plannerTripFixture()
	gen := &mockGenerator{generate: func(_ context.Context, _ string) (string, error) {
		return "", domain.ErrGenerationFailed
	}}

	req := authedRequest(http.MethodPost, "/trips/"+trip.ID.String()+"/itinerary/generate", nil)
	rec := httptest.NewRecorder()

	newPlannerHandler(fixtureRepo(trip), gen).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "generation_failed")
}

func TestGenerateItinerary_502_MalformedOutput(t *testing.T) {
	trip := plannerTripFixture()
	gen := &mockGenerator{generate: func(_ context.Context, _ string) (string, error) {
		return "Sorry, I cannot help with that.", nil
	}}

	req := authedRequest(http.MethodPost, "/trips/"+trip.ID.String()+"/itinerary/generate", nil)
	rec := httptest.NewRecorder()

	newPlannerHandler(fixtureRepo(trip), gen).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed_itinerary")
}

func TestGenerateItinerary_404_UnknownTrip(t *testing.T) {
	trip := plannerTripFixture()

	req := authedRequest(http.MethodPost, "/trips/"+uuid.New().String()+"/itinerary/generate", nil)
	rec := httptest.NewRecorder()

	newPlannerHandler(fixtureRepo(trip), &mockGenerator{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateItinerary_409_WhileGenerating(t *testing.T) {
	trip := plannerTripFixture()
	gen := &blockingGenerator{started: make(chan struct{}), release: make(chan struct{})}
	h := newPlannerHandler(fixtureRepo(trip), gen)

	done := make(chan struct{})
	go func() {
		defer close(done)
		req := authedRequest(http.MethodPost, "/trips/"+trip.ID.String()+"/itinerary/generate", nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}()
	<-gen.started

	req := authedRequest(http.MethodPost, "/trips/"+trip.ID.String()+"/itinerary/generate", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "busy")

	close(gen.release)
	<-done
}

// ---- POST /trips/{id}/itinerary/activities ---------------------------------

func TestAddActivity_201(t *testing.T) {
	trip := plannerTripFixture()
	h := newPlannerHandler(fixtureRepo(trip), &mockGenerator{})

	body := jsonBody(t, map[string]any{
		"day":         3,
		"time":        "Afternoon",
		"place":       "Jal Mahal",
		"description": "Lakeside stop",
	})
	req := authedRequest(http.MethodPost, "/trips/"+trip.ID.String()+"/itinerary/activities", body)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Activity  domain.Activity  `json:"activity"`
		Itinerary domain.Itinerary `json:"itinerary"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Activity.Manual())
	assert.Equal(t, "Jal Mahal", resp.Activity.Place)

	// Days 2 and 3 are created to close the gap.
	require.Len(t, resp.Itinerary, 3)
	assert.Empty(t, resp.Itinerary[1].Activities)
	require.Len(t, resp.Itinerary[2].Activities, 1)
}

func TestAddActivity_422_MissingPlace(t *testing.T) {
	trip := plannerTripFixture()
	h := newPlannerHandler(fixtureRepo(trip), &mockGenerator{})

	body := jsonBody(t, map[string]any{"day": 1, "time": "Morning"})
	req := authedRequest(http.MethodPost, "/trips/"+trip.ID.String()+"/itinerary/activities", body)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "place is required")
}

// ---- DELETE .../days/{dayIdx}/activities/{activityID} ----------------------

func TestRemoveActivity_200(t *testing.T) {
	trip := plannerTripFixture()
	h := newPlannerHandler(fixtureRepo(trip), &mockGenerator{})

	req := authedRequest(http.MethodDelete,
		"/trips/"+trip.ID.String()+"/itinerary/days/0/activities/local-keep", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Itinerary domain.Itinerary `json:"itinerary"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Itinerary, 1)
	require.Len(t, resp.Itinerary[0].Activities, 1)
	assert.Equal(t, "Amber Fort", resp.Itinerary[0].Activities[0].Place)
}

func TestRemoveActivity_422_BadDayIndex(t *testing.T) {
	trip := plannerTripFixture()
	h := newPlannerHandler(fixtureRepo(trip), &mockGenerator{})

	req := authedRequest(http.MethodDelete,
		"/trips/"+trip.ID.String()+"/itinerary/days/first/activities/local-keep", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- PUT /trips/{id}/itinerary ---------------------------------------------

func TestSaveItinerary_200(t *testing.T) {
	trip := plannerTripFixture()
	r := fixtureRepo(trip)

	var savedIt domain.Itinerary
	r.replaceItinerary = func(_ context.Context, ownerID string, id uuid.UUID, it domain.Itinerary) (domain.Trip, error) {
		assert.Equal(t, trip.OwnerID, ownerID)
		assert.Equal(t, trip.ID, id)
		savedIt = it
		saved := trip
		saved.Itinerary = it
		return saved, nil
	}
	h := newPlannerHandler(r, &mockGenerator{})

	req := authedRequest(http.MethodPut, "/trips/"+trip.ID.String()+"/itinerary", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, savedIt, 1)
	require.Len(t, savedIt[0].Activities, 2)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, trip.ID.String(), resp["id"])
	assert.NotNil(t, resp["itinerary"])
}

func TestSaveItinerary_500_StoreFailure(t *testing.T) {
	trip := plannerTripFixture()
	r := fixtureRepo(trip)
	r.replaceItinerary = func(_ context.Context, _ string, _ uuid.UUID, _ domain.Itinerary) (domain.Trip, error) {
		return domain.Trip{}, errors.New("connection reset")
	}
	h := newPlannerHandler(r, &mockGenerator{})

	req := authedRequest(http.MethodPut, "/trips/"+trip.ID.String()+"/itinerary", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "store_failure")
}

// ---- DELETE /trips/{id}/session --------------------------------------------

func TestCloseSession_204(t *testing.T) {
	trip := plannerTripFixture()
	h := newPlannerHandler(fixtureRepo(trip), &mockGenerator{})

	// Open a session by touching the planner, then close it.
	body := jsonBody(t, map[string]any{"day": 1, "place": "Hawa Mahal"})
	h.ServeHTTP(httptest.NewRecorder(),
		authedRequest(http.MethodPost, "/trips/"+trip.ID.String()+"/itinerary/activities", body))

	req := authedRequest(http.MethodDelete, "/trips/"+trip.ID.String()+"/session", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Reopening starts from the stored itinerary: the unsaved activity is gone.
	req = authedRequest(http.MethodDelete,
		"/trips/"+trip.ID.String()+"/itinerary/days/0/activities/local-keep", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Itinerary domain.Itinerary `json:"itinerary"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Itinerary, 1)
	require.Len(t, resp.Itinerary[0].Activities, 1)
}
