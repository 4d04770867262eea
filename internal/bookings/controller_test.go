package bookings

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     json.RawMessage `json:"errors"`
}

func newTestEngine(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	SetupBookingRoutes(engine.Group("/api/v1"), NewController(svc))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestReserveEndpointConfirmed(t *testing.T) {
	svc, _, show, _ := newTestService(t, 40)
	engine := newTestEngine(svc)

	w, env := doJSON(t, engine, http.MethodPost, "/api/v1/shows/"+show.ID.String()+"/bookings", gin.H{"seats": []int{3, 4}, "user_name": "Asha"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "success", env.Status)

	var outcome Outcome
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.Equal(t, StatusConfirmed, outcome.Status)
	assert.Equal(t, []int{3, 4}, outcome.SeatsConfirmed)
}

func TestReserveEndpointConflict(t *testing.T) {
	svc, _, show, _ := newTestService(t, 40)
	engine := newTestEngine(svc)
	path := "/api/v1/shows/" + show.ID.String() + "/bookings"

	w, _ := doJSON(t, engine, http.MethodPost, path, gin.H{"seats": []int{1, 2}})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doJSON(t, engine, http.MethodPost, path, gin.H{"seats": []int{2, 3}})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, ReasonSeatsUnavailable, env.Message)

	var outcome Outcome
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, []int{2}, outcome.FailedSeats)
}

func TestReserveEndpointInvalidRange(t *testing.T) {
	svc, _, show, _ := newTestService(t, 5)
	engine := newTestEngine(svc)

	w, env := doJSON(t, engine, http.MethodPost, "/api/v1/shows/"+show.ID.String()+"/bookings", gin.H{"seats": []int{2, 4, 6}})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var details struct {
		InvalidSeats []int `json:"invalid_seats"`
		TotalSeats   int   `json:"total_seats"`
	}
	require.NoError(t, json.Unmarshal(env.Errors, &details))
	assert.Equal(t, []int{6}, details.InvalidSeats)
	assert.Equal(t, 5, details.TotalSeats)
}

func TestReserveEndpointRejectsBadInput(t *testing.T) {
	svc, _, show, _ := newTestService(t, 5)
	engine := newTestEngine(svc)

	tests := []struct {
		name string
		path string
		body interface{}
		code int
	}{
		{name: "bad show id", path: "/api/v1/shows/not-a-uuid/bookings", body: gin.H{"seats": []int{1}}, code: http.StatusBadRequest},
		{name: "empty seats", path: "/api/v1/shows/" + show.ID.String() + "/bookings", body: gin.H{"seats": []int{}}, code: http.StatusBadRequest},
		{name: "missing seats", path: "/api/v1/shows/" + show.ID.String() + "/bookings", body: gin.H{"user_name": "x"}, code: http.StatusBadRequest},
		{name: "unknown show", path: "/api/v1/shows/" + uuid.NewString() + "/bookings", body: gin.H{"seats": []int{1}}, code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := doJSON(t, engine, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "error", env.Status)
		})
	}
}

func TestReserveEndpointStoreFault(t *testing.T) {
	svc, repo, show, _ := newTestService(t, 5)
	repo.FailOn("ClaimSeats", errors.New("connection refused"))
	engine := newTestEngine(svc)

	w, env := doJSON(t, engine, http.MethodPost, "/api/v1/shows/"+show.ID.String()+"/bookings", gin.H{"seats": []int{1}})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, env.Message, "connection refused")
}

func TestGetBookingEndpoint(t *testing.T) {
	svc, _, show, _ := newTestService(t, 40)
	engine := newTestEngine(svc)

	_, env := doJSON(t, engine, http.MethodPost, "/api/v1/shows/"+show.ID.String()+"/bookings", gin.H{"seats": []int{9}})
	var outcome Outcome
	require.NoError(t, json.Unmarshal(env.Data, &outcome))

	w, env := doJSON(t, engine, http.MethodGet, "/api/v1/bookings/"+outcome.BookingID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var details BookingDetails
	require.NoError(t, json.Unmarshal(env.Data, &details))
	assert.Equal(t, []int{9}, details.Seats)
	assert.Equal(t, show.Name, details.ShowName)

	w, _ = doJSON(t, engine, http.MethodGet, "/api/v1/bookings/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	svc, _, show, _ := newTestService(t, 4)
	engine := newTestEngine(svc)

	_, _ = doJSON(t, engine, http.MethodPost, "/api/v1/shows/"+show.ID.String()+"/bookings", gin.H{"seats": []int{2, 3}})

	w, env := doJSON(t, engine, http.MethodGet, "/api/v1/shows/"+show.ID.String()+"/availability", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var availability Availability
	require.NoError(t, json.Unmarshal(env.Data, &availability))
	assert.Equal(t, []int{2, 3}, availability.ReservedSeats)
	assert.Equal(t, []int{1, 4}, availability.AvailableSeats)
}
