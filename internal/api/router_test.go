package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droproute/droproute/internal/api"
	"github.com/droproute/droproute/internal/api/models"
	"github.com/droproute/droproute/internal/delivery"
	"github.com/droproute/droproute/internal/geo"
	"github.com/droproute/droproute/internal/geocoding"
	"github.com/droproute/droproute/internal/planner"
	"github.com/droproute/droproute/internal/routing"
)

// mapResolver resolves addresses from a fixed table.
type mapResolver map[string]geo.Coordinate

func (m mapResolver) ResolveAll(_ context.Context, addresses []string) []*geocoding.LocatedPoint {
	out := make([]*geocoding.LocatedPoint, len(addresses))
	for i, a := range addresses {
		if c, ok := m[a]; ok {
			out[i] = &geocoding.LocatedPoint{DisplayName: a, Coordinate: c}
		}
	}
	return out
}

func (m mapResolver) Describe(_ context.Context, c geo.Coordinate) (string, error) {
	for name, known := range m {
		if known == c {
			return name, nil
		}
	}
	return "", geocoding.ErrAddressNotFound
}

// straightLegs plans every leg as a straight 1 km segment.
type straightLegs struct{}

func (straightLegs) PlanLegs(_ context.Context, points []geocoding.LocatedPoint) ([]routing.Leg, error) {
	legs := make([]routing.Leg, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		legs = append(legs, routing.Leg{
			Index:           i - 1,
			From:            points[i-1],
			To:              points[i],
			Path:            []geo.Coordinate{points[i-1].Coordinate, points[i].Coordinate},
			DistanceMeters:  1000,
			DurationSeconds: 120,
		})
	}
	return legs, nil
}

var addresses = mapResolver{
	"Depot":                 {Lat: 41.87747, Lon: -87.62721},
	"6230 N Kenmore Ave":    {Lat: 41.99386, Lon: -87.65353},
	"2250 N Sheffield Ave":  {Lat: 41.92298, Lon: -87.65385},
	"1060 W Addison St":     {Lat: 41.94725, Lon: -87.65566},
	"233 S Wacker Dr":       {Lat: 41.87889, Lon: -87.63589},
	"1400 S Lake Shore Dr":  {Lat: 41.86632, Lon: -87.61698},
	"600 E Grand Ave":       {Lat: 41.89170, Lon: -87.60900},
	"201 E Randolph St":     {Lat: 41.88420, Lon: -87.62180},
	"5700 S DuSable Lk Shr": {Lat: 41.79090, Lon: -87.58310},
}

func newTestRouter(t *testing.T) (http.Handler, *delivery.Service) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	deliveries := delivery.NewService(delivery.NewInMemoryRepository())
	workflow := planner.NewWorkflow(planner.WorkflowConfig{
		Resolver:   addresses,
		Legs:       straightLegs{},
		Deliveries: deliveries,
		Logger:     logger,
	})

	return api.NewRouter(api.RouterConfig{
		Version:         "test",
		BuildTime:       "2026-01-01T00:00:00Z",
		Logger:          logger,
		DeliveryService: deliveries,
		Planner:         workflow,
		Describer:       addresses,
		Sessions:        planner.NewSessions(logger),
	}), deliveries
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthCheck(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/v1/ops/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_ReadinessAndStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/v1/ops/ready", nil).Code)

	rec := do(t, router, http.MethodGet, "/v1/ops/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
}

func TestRouter_PlanRoute_OmitsUnresolvedStops(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/v1/routes:plan", models.RoutePlanRequest{
		Origin:      "Depot",
		Stops:       []string{"6230 N Kenmore Ave", "nowhere", "2250 N Sheffield Ave"},
		Destination: "233 S Wacker Dr",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var plan models.RoutePlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "complete", plan.Status)
	assert.Equal(t, 3, plan.RequestedLegs)
	require.Len(t, plan.Legs, 3)
	require.Len(t, plan.Itinerary, 4)
	assert.Equal(t, "6230 N Kenmore Ave", plan.Itinerary[1].Name)
	assert.Equal(t, "2250 N Sheffield Ave", plan.Itinerary[2].Name)
	assert.InDelta(t, 3000, plan.TotalDistanceMeters, 0.001)
}

func TestRouter_PlanRoute_InsufficientPoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/v1/routes:plan", models.RoutePlanRequest{
		Origin:      "Depot",
		Destination: "nowhere",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouter_AcceptedRouteFollowsAcceptanceOrder(t *testing.T) {
	router, deliveries := newTestRouter(t)
	ctx := context.Background()

	var ids []string
	for _, a := range []string{"1060 W Addison St", "600 E Grand Ave", "201 E Randolph St"} {
		d, err := deliveries.Create(ctx, delivery.CreateInput{Name: "Customer", TimeWindow: "10am-3pm", Address: a})
		require.NoError(t, err)
		ids = append(ids, d.ID)
	}

	// Accept out of creation order; the route follows acceptance.
	for _, id := range []string{ids[2], ids[0]} {
		rec := do(t, router, http.MethodPost, "/v1/deliveries/"+id+":accept", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, router, http.MethodPost, "/v1/routes:accepted", models.AcceptedRouteRequest{Origin: "Depot"})
	require.Equal(t, http.StatusOK, rec.Code)

	var plan models.RoutePlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	require.Len(t, plan.Itinerary, 3)
	assert.Equal(t, "Depot", plan.Itinerary[0].Name)
	assert.Equal(t, "201 E Randolph St", plan.Itinerary[1].Name)
	assert.Equal(t, "1060 W Addison St", plan.Itinerary[2].Name)
}

func TestRouter_DeliveryLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/v1/deliveries", models.DeliveryCreateRequest{
		Name:       "John Doe",
		TimeWindow: "10am-3pm",
		Address:    "6230 N Kenmore Ave",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Delivery
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, router, http.MethodGet, "/v1/deliveries/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/v1/deliveries/"+created.ID+":complete", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/v1/deliveries/"+created.ID+":accept", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/v1/deliveries?status=Ongoing", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.DeliveryList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}

func TestRouter_ReverseGeocode(t *testing.T) {
	router, _ := newTestRouter(t)
	lat, lon := 41.87889, -87.63589

	rec := do(t, router, http.MethodPost, "/v1/geocode:reverse", models.ReverseGeocodeRequest{Lat: &lat, Lon: &lon})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.ReverseGeocodeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "233 S Wacker Dr", resp.Label)
}

func TestRouter_SessionPlan(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var s models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))

	rec = do(t, router, http.MethodPost, "/v1/sessions/"+s.SessionID+"/plan", models.SessionPlanRequest{
		Origin:      "Depot",
		Destination: "1400 S Lake Shore Dr",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/v1/sessions/"+s.SessionID+"/plan", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap models.SessionPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, uint64(1), snap.RunID)
	require.NotNil(t, snap.Plan)
	assert.Len(t, snap.Plan.Legs, 1)
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/deliveries", bytes.NewBufferString("name=John"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_RequestID(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/v1/ops/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "req-from-gateway")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-from-gateway", rec.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/v1/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}
